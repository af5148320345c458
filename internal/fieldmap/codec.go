package fieldmap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"journalsync/internal/domain"
)

// encodeValue serializes a typed canonical value for the backend column.
func (t *Table) encodeValue(kind Kind, val any) (any, error) {
	switch kind {
	case KindDateTime:
		return domain.FormatTime(val.(time.Time)), nil
	case KindBool:
		b := val.(bool)
		if !t.opts.BoolStrings {
			return b, nil
		}
		if b {
			return t.opts.BoolTrue, nil
		}
		return t.opts.BoolFalse, nil
	case KindStringList:
		items := val.([]string)
		if t.opts.ListsAsJSON {
			data, err := json.Marshal(items)
			if err != nil {
				return nil, err
			}
			return string(data), nil
		}
		return strings.Join(items, ", "), nil
	case KindInt:
		return val.(int), nil
	case KindFloat:
		return val.(float64), nil
	case KindJSON:
		// Raw payloads are already JSON text; pass them through untouched.
		return val.(string), nil
	case KindAttachments:
		data, err := json.Marshal(val.([]domain.MediaAttachment))
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return val.(string), nil
	}
}

// decodeValue coerces a raw backend value into the typed canonical form.
func (t *Table) decodeValue(kind Kind, raw any) (any, error) {
	switch kind {
	case KindDateTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected datetime string, got %T", raw)
		}
		return domain.ParseTime(s)
	case KindBool:
		return decodeBool(raw)
	case KindStringList:
		return decodeStringList(raw)
	case KindInt:
		return decodeInt(raw)
	case KindFloat:
		return decodeFloat(raw)
	case KindJSON:
		switch v := raw.(type) {
		case string:
			return v, nil
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return string(data), nil
		}
	case KindAttachments:
		return decodeAttachments(raw)
	default:
		switch v := raw.(type) {
		case string:
			return v, nil
		default:
			return fmt.Sprintf("%v", v), nil
		}
	}
}

func decodeBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no", "":
			return false, nil
		}
		return false, fmt.Errorf("unrecognized boolean %q", v)
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", raw)
	}
}

// decodeStringList accepts native arrays, JSON array strings (sniffed by
// the leading bracket) and delimited strings.
func decodeStringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, it := range v {
			items = append(items, fmt.Sprintf("%v", it))
		}
		return items, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if strings.HasPrefix(s, "[") {
			var items []string
			if err := json.Unmarshal([]byte(s), &items); err != nil {
				return nil, fmt.Errorf("invalid list json: %w", err)
			}
			return items, nil
		}
		parts := strings.Split(s, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", raw)
	}
}

func decodeInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func decodeFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("expected float, got %T", raw)
	}
}

func decodeAttachments(raw any) ([]domain.MediaAttachment, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}
	var atts []domain.MediaAttachment
	if err := json.Unmarshal(data, &atts); err != nil {
		return nil, fmt.Errorf("invalid attachments json: %w", err)
	}
	return atts, nil
}
