// Package dockerfile renders and inspects the container recipe used by a release.
package dockerfile

import (
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/thirukguru/image-release/model"
)

// Known ports the recipe ships with.
const (
	PortDefault = 8000
	PortHTTP    = 80
)

var recipeTemplate = template.Must(template.New("Dockerfile").Parse(`FROM {{ .BaseImage }}

COPY {{ .Manifest }} {{ .Manifest }}
RUN pip install --no-cache-dir -r {{ .Manifest }}

WORKDIR {{ .WorkDir }}
COPY . {{ .WorkDir }}

ARG {{ .ArgName }}="{{ .DefaultCommitID }}"
ENV {{ .ArgName }}=${{ "{" }}{{ .ArgName }}{{ "}" }}

EXPOSE {{ .Port }}

CMD ["uvicorn", "{{ .Module }}:{{ .AppObject }}", "--host", "0.0.0.0", "--port", "{{ .Port }}"]
`))

// DefaultRecipe returns the recipe used by the served application for port.
func DefaultRecipe(port int) Recipe {
	return Recipe{
		BaseImage:       "python:3.11-slim",
		Manifest:        "requirements.txt",
		WorkDir:         "/app",
		Port:            port,
		Module:          "main",
		AppObject:       "app",
		DefaultCommitID: model.DefaultCommitID,
	}
}

// Variants returns the two recipe variants, which differ only in port.
func Variants() []Variant {
	return []Variant{
		{Name: "port-8000", Recipe: DefaultRecipe(PortDefault)},
		{Name: "port-80", Recipe: DefaultRecipe(PortHTTP)},
	}
}

// VariantForPort returns the known variant for port.
func VariantForPort(port int) (Variant, bool) {
	for _, v := range Variants() {
		if v.Recipe.Port == port {
			return v, true
		}
	}
	return Variant{}, false
}

// KnownPorts lists the ports of all variants in ascending order.
func KnownPorts() []int {
	ports := make([]int, 0, 2)
	for _, v := range Variants() {
		ports = append(ports, v.Recipe.Port)
	}
	sort.Ints(ports)
	return ports
}

// Validate reports missing recipe fields.
func (r Recipe) Validate() error {
	switch {
	case r.BaseImage == "":
		return fmt.Errorf("recipe: base image is required")
	case r.Manifest == "":
		return fmt.Errorf("recipe: dependency manifest is required")
	case r.WorkDir == "":
		return fmt.Errorf("recipe: workdir is required")
	case r.Port <= 0 || r.Port > 65535:
		return fmt.Errorf("recipe: port %d out of range", r.Port)
	case r.Module == "" || r.AppObject == "":
		return fmt.Errorf("recipe: module and app object are required")
	}
	return nil
}

// Render writes the recipe as a Dockerfile.
func Render(w io.Writer, r Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.DefaultCommitID == "" {
		r.DefaultCommitID = model.DefaultCommitID
	}
	data := struct {
		Recipe
		ArgName string
	}{Recipe: r, ArgName: model.CommitIDBuildArg}
	if err := recipeTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render recipe: %w", err)
	}
	return nil
}
