package perspective

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/grant-review/internal/model"
)

// setFile is the on-disk shape of a perspective set:
//
//	perspectives:
//	  - name: technical
//	  - name: treasury_hawk
//	    prompt: Evaluate as a treasury steward...
type setFile struct {
	Perspectives []model.PerspectiveSpec `yaml:"perspectives"`
}

// LoadSet reads a YAML perspective set and resolves it.
func LoadSet(path string) ([]model.Perspective, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "perspective: read set %s", path)
	}
	var f setFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "perspective: parse set %s", path)
	}
	return ResolveSpecs(f.Perspectives), nil
}
