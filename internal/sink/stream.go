package sink

import (
	"encoding/json"
	"io"

	"rerun-loader-urdf/internal/mathutil"
	"rerun-loader-urdf/internal/urdf"
)

// Stream is a Recording that writes one JSON record per line to a single
// writer. The first record is a stream header carrying the application
// and recording identifiers; every later record is one logged entity.
type Stream struct {
	enc   *json.Encoder
	err   error
	times []timelineValue
}

type header struct {
	ApplicationID string `json:"application_id"`
	RecordingID   string `json:"recording_id,omitempty"`
}

type timelineValue struct {
	Timeline string   `json:"timeline"`
	Seconds  *float64 `json:"seconds,omitempty"`
	Sequence *int64   `json:"sequence,omitempty"`
}

type record struct {
	EntityPath string          `json:"entity_path"`
	Archetype  string          `json:"archetype"`
	Static     bool            `json:"static,omitempty"`
	Times      []timelineValue `json:"times,omitempty"`

	Convention  string          `json:"convention,omitempty"`
	Translation *[3]float64     `json:"translation,omitempty"`
	Quaternion  *[4]float64     `json:"quaternion,omitempty"`
	AssetPath   string          `json:"asset_path,omitempty"`
	Scale       *[3]float64     `json:"scale,omitempty"`
	Size        *[3]float64     `json:"size,omitempty"`
	Radius      *float64        `json:"radius,omitempty"`
	Length      *float64        `json:"length,omitempty"`
	Color       *[4]float64     `json:"color,omitempty"`
	Texture     *texturePayload `json:"texture,omitempty"`
	Text        string          `json:"text,omitempty"`
}

type texturePayload struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   []byte `json:"data"` // base64 in the JSON encoding
}

// NewStream writes the stream header and returns the stream. Write errors
// are sticky and reported by Err; logging calls after a failure are no-ops.
func NewStream(w io.Writer, applicationID, recordingID string) *Stream {
	s := &Stream{enc: json.NewEncoder(w)}
	s.err = s.enc.Encode(header{ApplicationID: applicationID, RecordingID: recordingID})
	return s
}

// Err returns the first write error, if any.
func (s *Stream) Err() error {
	return s.err
}

func (s *Stream) SetTimeSeconds(timeline string, seconds float64) {
	v := seconds
	s.setTime(timelineValue{Timeline: timeline, Seconds: &v})
}

func (s *Stream) SetTimeSequence(timeline string, sequence int64) {
	v := sequence
	s.setTime(timelineValue{Timeline: timeline, Sequence: &v})
}

func (s *Stream) setTime(tv timelineValue) {
	for i := range s.times {
		if s.times[i].Timeline == tv.Timeline {
			s.times[i] = tv
			return
		}
	}
	s.times = append(s.times, tv)
}

func (s *Stream) write(rec record) error {
	if s.err != nil {
		return s.err
	}
	if !rec.Static && len(s.times) > 0 {
		rec.Times = append([]timelineValue(nil), s.times...)
	}
	s.err = s.enc.Encode(rec)
	return s.err
}

func (s *Stream) ViewCoordinates(entityPath, convention string) error {
	return s.write(record{
		EntityPath: entityPath,
		Archetype:  "ViewCoordinates",
		Static:     true,
		Convention: convention,
	})
}

func (s *Stream) Transform(entityPath string, translation mathutil.Vec3, rotation mathutil.Quat, static bool) error {
	t := [3]float64(translation)
	q := [4]float64(rotation)
	return s.write(record{
		EntityPath:  entityPath,
		Archetype:   "Transform3D",
		Static:      static,
		Translation: &t,
		Quaternion:  &q,
	})
}

func (s *Stream) Asset(entityPath, assetPath string, scale mathutil.Vec3, static bool) error {
	rec := record{
		EntityPath: entityPath,
		Archetype:  "Asset3D",
		Static:     static,
		AssetPath:  assetPath,
	}
	if scale != mathutil.Vec3One() && scale != (mathutil.Vec3{}) {
		sc := [3]float64(scale)
		rec.Scale = &sc
	}
	return s.write(rec)
}

func (s *Stream) Box(entityPath string, size mathutil.Vec3, color *urdf.Color, static bool) error {
	sz := [3]float64(size)
	return s.write(record{
		EntityPath: entityPath,
		Archetype:  "Boxes3D",
		Static:     static,
		Size:       &sz,
		Color:      colorPayload(color),
	})
}

func (s *Stream) Cylinder(entityPath string, radius, length float64, color *urdf.Color, static bool) error {
	return s.write(record{
		EntityPath: entityPath,
		Archetype:  "Cylinders3D",
		Static:     static,
		Radius:     &radius,
		Length:     &length,
		Color:      colorPayload(color),
	})
}

func (s *Stream) Sphere(entityPath string, radius float64, color *urdf.Color, static bool) error {
	return s.write(record{
		EntityPath: entityPath,
		Archetype:  "Spheres3D",
		Static:     static,
		Radius:     &radius,
		Color:      colorPayload(color),
	})
}

func (s *Stream) AlbedoTexture(entityPath string, webp []byte, width, height int) error {
	return s.write(record{
		EntityPath: entityPath,
		Archetype:  "AlbedoTexture",
		Static:     true,
		Texture:    &texturePayload{Width: width, Height: height, Format: "webp", Data: webp},
	})
}

func (s *Stream) Text(entityPath, text string) error {
	return s.write(record{
		EntityPath: entityPath,
		Archetype:  "TextLog",
		Text:       text,
	})
}

func colorPayload(c *urdf.Color) *[4]float64 {
	if c == nil {
		return nil
	}
	out := [4]float64(*c)
	return &out
}
