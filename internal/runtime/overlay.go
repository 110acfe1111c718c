package runtime

import (
	"gopkg.in/yaml.v3"
)

// overlayFile is the compose override document written next to the
// user's compose files.
type overlayFile struct {
	Services map[string]overlayService `yaml:"services"`
}

type overlayService struct {
	Image       string            `yaml:"image"`
	Command     string            `yaml:"command"`
	StdinOpen   bool              `yaml:"stdin_open"`
	TTY         bool              `yaml:"tty"`
	WorkingDir  string            `yaml:"working_dir"`
	Volumes     []string          `yaml:"volumes,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Deploy      *overlayDeploy    `yaml:"deploy,omitempty"`
}

type overlayDeploy struct {
	Resources overlayResources `yaml:"resources"`
}

type overlayResources struct {
	Limits overlayLimits `yaml:"limits"`
}

type overlayLimits struct {
	CPUs   string `yaml:"cpus,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

// BuildOverlay renders the override YAML that turns service into an idle,
// TTY-enabled sandbox for cfg. Bind mounts precede anonymous volumes.
// Environment keys are emitted sorted; a repeated key keeps its last value.
func BuildOverlay(service string, cfg *ContainerConfig, image string) ([]byte, error) {
	svc := overlayService{
		Image:      image,
		Command:    "sleep infinity",
		StdinOpen:  true,
		TTY:        true,
		WorkingDir: cfg.WorkingDir,
	}

	for _, v := range cfg.Volumes {
		svc.Volumes = append(svc.Volumes, v.Spec())
	}
	svc.Volumes = append(svc.Volumes, cfg.AnonymousVolumes...)

	if len(cfg.Environment) > 0 {
		// yaml.v3 sorts map keys when encoding
		svc.Environment = make(map[string]string, len(cfg.Environment))
		for _, e := range cfg.Environment {
			svc.Environment[e.Key] = e.Value
		}
	}

	if cfg.HasLimits() {
		svc.Deploy = &overlayDeploy{
			Resources: overlayResources{
				Limits: overlayLimits{CPUs: cfg.CPULimit, Memory: cfg.MemoryLimit},
			},
		}
	}

	doc := overlayFile{Services: map[string]overlayService{service: svc}}
	return yaml.Marshal(&doc)
}
