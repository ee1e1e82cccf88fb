// Package exdep checks for external programs.
package exdep

import (
	"fmt"
	"os/exec"
	"strings"
)

// Dep represents an external tool dependency
type Dep struct {
	Name  string
	Links []string
	Docs  string
}

// YazClient is required for Z39.50 access.
var YazClient = Dep{
	Name:  "yaz-client",
	Links: []string{"https://www.indexdata.com/resources/software/yaz/"},
	Docs:  "install yaz, e.g. apt install yaz",
}

// Path returns the absolute path of the program, or an error explaining how
// to install it.
func (dep Dep) Path() (string, error) {
	p, err := exec.LookPath(dep.Name)
	if err != nil {
		return "", fmt.Errorf("%s: %w [%s, %s]",
			dep.Name, err, dep.Docs, strings.Join(dep.Links, ", "))
	}
	return p, nil
}

// Check returns an error for each missing dependency.
func Check(deps []Dep) []error {
	var errors []error
	for _, dep := range deps {
		if _, err := dep.Path(); err != nil {
			errors = append(errors, err)
		}
	}
	return errors
}
