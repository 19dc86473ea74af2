package config

type RoutesConfig interface {
	// GetRoutesFile is an optional YAML file replacing the built-in route table
	GetRoutesFile() string
}

type Routes struct {
	RoutesFile string `env:"ROUTES_FILE"`
}

var _ RoutesConfig = Routes{}

func (r Routes) GetRoutesFile() string {
	return r.RoutesFile
}
