package marionette

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// The records below are the persistence format. Each field carries both a
// json tag (encoding) and a mapstructure tag (strict decoding).

type vec2Record struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

func toVec2Record(v Vec2) vec2Record { return vec2Record{X: v.X, Y: v.Y} }
func (r vec2Record) vec2() Vec2      { return Vec2{X: r.X, Y: r.Y} }

type actuatorRecord struct {
	ID        string  `json:"id" mapstructure:"id"`
	Node      string  `json:"node" mapstructure:"node"`
	StartTime float64 `json:"starttime" mapstructure:"starttime"`
	Duration  float64 `json:"duration" mapstructure:"duration"`
	Method    string  `json:"method" mapstructure:"method"`
}

type transformPayload struct {
	Position vec2Record `json:"position" mapstructure:"position"`
	Size     vec2Record `json:"size" mapstructure:"size"`
	Scale    vec2Record `json:"scale" mapstructure:"scale"`
	Rotation float64    `json:"rotation" mapstructure:"rotation"`
}

type setValuePayload struct {
	Name  string  `json:"name" mapstructure:"name"`
	Value float64 `json:"value" mapstructure:"value"`
}

type kinematicPayload struct {
	LinearVelocity  vec2Record `json:"linear_velocity" mapstructure:"linear_velocity"`
	AngularVelocity float64    `json:"angular_velocity" mapstructure:"angular_velocity"`
}

type setFlagPayload struct {
	Flag   string `json:"flag" mapstructure:"flag"`
	Action string `json:"action" mapstructure:"action"`
}

// actuatorObject is the encoded form: the common fields followed by the
// variant payload, flattened into one JSON object.
type actuatorObject[P any] struct {
	actuatorRecord
	Payload P `json:"-"`
}

func (o actuatorObject[P]) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(o.actuatorRecord)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(o.Payload)
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(payload, &extra); err != nil {
		return nil, err
	}
	for k, v := range extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// errNullField reports a JSON null where a value is required.
var errNullField = errors.New("null field")

// decodeStrict decodes input into out. Every field of out must be present in
// input with a matching type; nothing is coerced. mapstructure treats a
// null as set and leaves the zero value, so nulls are rejected first.
func decodeStrict(input any, out any) error {
	if hasNull(input) {
		return errNullField
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnset: true,
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// hasNull reports whether v is nil or holds a nil anywhere in its decoded
// JSON maps and arrays.
func hasNull(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case map[string]any:
		for _, x := range v {
			if hasNull(x) {
				return true
			}
		}
	case []any:
		for _, x := range v {
			if hasNull(x) {
				return true
			}
		}
	}
	return false
}

// record returns the persistence record for c.
func (c *ActuatorClass) record() any {
	base := actuatorRecord{
		ID:        c.ID,
		Node:      c.Node,
		StartTime: c.StartTime,
		Duration:  c.Duration,
		Method:    c.Method.String(),
	}
	switch end := c.End.(type) {
	case TransformEnd:
		return actuatorObject[transformPayload]{base, transformPayload{
			Position: toVec2Record(end.Position),
			Size:     toVec2Record(end.Size),
			Scale:    toVec2Record(end.Scale),
			Rotation: end.Rotation,
		}}
	case SetValueEnd:
		return actuatorObject[setValuePayload]{base, setValuePayload{Name: end.Param.String(), Value: end.Value}}
	case KinematicEnd:
		return actuatorObject[kinematicPayload]{base, kinematicPayload{
			LinearVelocity:  toVec2Record(end.LinearVelocity),
			AngularVelocity: end.AngularVelocity,
		}}
	case SetFlagEnd:
		return actuatorObject[setFlagPayload]{base, setFlagPayload{Flag: end.Flag.String(), Action: end.Action.String()}}
	default:
		panic(fmt.Sprintf("marionette: unreachable actuator variant %T", c.End))
	}
}

// ToJSON encodes the class. The variant tag is not part of the object; it
// travels in the enclosing track's {type, actuator} envelope.
func (c *ActuatorClass) ToJSON() ([]byte, error) {
	data, err := json.Marshal(c.record())
	if err != nil {
		return nil, fmt.Errorf("encode actuator %s: %w", c.ID, err)
	}
	return data, nil
}

// ActuatorClassFromJSON decodes an actuator of the given variant. Any
// missing, null or mistyped field, or an unknown method, parameter, flag or
// action name, fails the whole object and returns (nil, false). A null is
// rejected even under a key the decoder would otherwise ignore.
func ActuatorClassFromJSON(typ ActuatorType, data []byte) (*ActuatorClass, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	return actuatorFromMap(typ, raw)
}

// actuatorFromMap decodes the common fields and the variant payload from the
// same object. Keys belonging to neither are ignored.
func actuatorFromMap(typ ActuatorType, raw map[string]any) (*ActuatorClass, bool) {
	var base actuatorRecord
	if decodeStrict(raw, &base) != nil {
		return nil, false
	}
	method, ok := ParseInterpolation(base.Method)
	if !ok {
		return nil, false
	}

	var end ActuatorEnd
	switch typ {
	case ActuatorTransform:
		var p transformPayload
		if decodeStrict(raw, &p) != nil {
			return nil, false
		}
		end = TransformEnd{
			Position: p.Position.vec2(),
			Size:     p.Size.vec2(),
			Scale:    p.Scale.vec2(),
			Rotation: p.Rotation,
		}
	case ActuatorSetValue:
		var p setValuePayload
		if decodeStrict(raw, &p) != nil {
			return nil, false
		}
		param, ok := ParseParamName(p.Name)
		if !ok {
			return nil, false
		}
		end = SetValueEnd{Param: param, Value: p.Value}
	case ActuatorKinematic:
		var p kinematicPayload
		if decodeStrict(raw, &p) != nil {
			return nil, false
		}
		end = KinematicEnd{LinearVelocity: p.LinearVelocity.vec2(), AngularVelocity: p.AngularVelocity}
	case ActuatorSetFlag:
		var p setFlagPayload
		if decodeStrict(raw, &p) != nil {
			return nil, false
		}
		flag, ok := ParseFlagName(p.Flag)
		if !ok {
			return nil, false
		}
		action, ok := ParseFlagAction(p.Action)
		if !ok {
			return nil, false
		}
		end = SetFlagEnd{Flag: flag, Action: action}
	default:
		panic(fmt.Sprintf("marionette: unreachable actuator type %d", uint8(typ)))
	}

	return &ActuatorClass{
		ID:        base.ID,
		Node:      base.Node,
		StartTime: base.StartTime,
		Duration:  base.Duration,
		Method:    method,
		End:       end,
	}, true
}
