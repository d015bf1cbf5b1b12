package perspective

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/model"
)

// Resolve normalizes perspective specs of any supported shape into
// (name, prompt) pairs. Supported shapes are model.PerspectiveSpec,
// model.Perspective, a bare predefined name, a Legacy value, a
// [2]string{name, prompt} pair and map[string]any{"name","prompt"} as
// decoded from JSON. Entries that cannot be resolved are logged and dropped.
func Resolve(specs ...any) []model.Perspective {
	out := make([]model.Perspective, 0, len(specs))
	for i, s := range specs {
		p, err := resolveOne(s)
		if err != nil {
			zap.L().Warn("perspective: dropping unresolvable entry",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		out = append(out, p)
	}
	return out
}

// ResolveSpecs is Resolve for a typed slice.
func ResolveSpecs(specs []model.PerspectiveSpec) []model.Perspective {
	anys := make([]any, len(specs))
	for i, s := range specs {
		anys[i] = s
	}
	return Resolve(anys...)
}

func resolveOne(s any) (model.Perspective, error) {
	switch v := s.(type) {
	case model.Perspective:
		return pair(v.Name, v.Prompt)
	case model.PerspectiveSpec:
		if v.IsCustom() {
			return pair(v.Name, v.Prompt)
		}
		return byName(v.Name)
	case string:
		return byName(v)
	case Legacy:
		if v.String() == "" {
			return model.Perspective{}, eris.Errorf("unknown legacy perspective %d", int(v))
		}
		return byName(v.String())
	case [2]string:
		return pair(v[0], v[1])
	case map[string]any:
		name, _ := v["name"].(string)
		prompt, _ := v["prompt"].(string)
		if prompt == "" {
			return byName(name)
		}
		return pair(name, prompt)
	default:
		return model.Perspective{}, eris.Errorf("unsupported perspective type %T", s)
	}
}

func byName(name string) (model.Perspective, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := Predefined(key); ok {
		return p, nil
	}
	return model.Perspective{}, eris.Errorf("unknown perspective %q", name)
}

func pair(name, prompt string) (model.Perspective, error) {
	name = strings.TrimSpace(name)
	prompt = strings.TrimSpace(prompt)
	if name == "" || prompt == "" {
		return model.Perspective{}, eris.Errorf("custom perspective needs both name and prompt (name=%q)", name)
	}
	return model.Perspective{Name: name, Prompt: prompt}, nil
}
