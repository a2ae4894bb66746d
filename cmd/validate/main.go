package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/defcon/internal/loader"
	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <character.yaml|dir>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := collect(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, filename := range files {
		validator := &ContentValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed++
			continue
		}
		for _, w := range validator.warnings {
			fmt.Println(w)
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d content files are invalid\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Printf("%d content file(s) are valid!\n", len(files))
}

// collect expands directories into the YAML files they contain.
func collect(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		units, err := loader.DirUnits(arg)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			if fu, ok := u.Unit.(loader.FileUnit); ok {
				files = append(files, fu.Path)
			}
		}
	}
	return files, nil
}

// ContentValidator checks one character file. Errors make the file unusable;
// warnings flag content that loads but will misbehave at runtime.
type ContentValidator struct {
	errors   []string
	warnings []string
}

func (v *ContentValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("content file must have .yaml or .yml extension: %s", baseName)
	}
	if !isValidContentFilename(strings.TrimSuffix(baseName, ext)) {
		return fmt.Errorf("content filename '%s' must be lowercase kebab-case (e.g., foreign-minister.yaml)", baseName)
	}

	def, err := loader.DecodeFile(filename)
	if err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	v.errors = nil
	v.warnings = nil
	v.validateDefinition(def)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	if _, err := def.Build(); err != nil {
		return fmt.Errorf("file %s does not build: %w", filename, err)
	}
	return nil
}

func (v *ContentValidator) validateDefinition(def *loader.Definition) {
	if strings.TrimSpace(def.Name) == "" {
		v.addError("character name is required")
	}
	if len(def.Groups) == 0 {
		v.addError("at least one group is required")
	}
	for gi, g := range def.Groups {
		if len(g.Templates) == 0 {
			v.addWarning(fmt.Sprintf("group %d has no templates", gi))
		}
		for ti, td := range g.Templates {
			v.validateTemplate(fmt.Sprintf("group %d template %d", gi, ti), td)
		}
	}
}

func (v *ContentValidator) validateTemplate(where string, td loader.TemplateDef) {
	if strings.TrimSpace(td.Text) == "" {
		v.addError(where + " has empty text")
	}
	if td.Weight != nil {
		switch w := *td.Weight; {
		case w < 0:
			v.addError(fmt.Sprintf("%s has negative weight %d", where, w))
		case w == 0:
			v.addWarning(where + " has weight 0 and will never be drawn")
		}
	}

	fields, err := content.Placeholders(td.Text)
	if err != nil {
		v.addError(fmt.Sprintf("%s: %v", where, err))
	}
	for _, f := range fields {
		if f != state.FieldNationName && !slices.Contains(state.TrackedAttributes(), f) {
			v.addWarning(fmt.Sprintf("%s references unknown placeholder {%s}", where, f))
		}
	}

	for _, expr := range td.When {
		cond, err := state.ParseCondition(expr)
		if err != nil {
			v.addError(fmt.Sprintf("%s: %v", where, err))
			continue
		}
		if !slices.Contains(state.TrackedAttributes(), cond.Attribute) {
			v.addWarning(fmt.Sprintf("%s condition %q uses an attribute nations do not have", where, expr))
		}
	}

	seen := make(map[string]bool, len(td.Choices))
	for _, cd := range td.Choices {
		if strings.TrimSpace(cd.Label) == "" {
			v.addError(where + " has a choice without a label")
		}
		if seen[cd.Label] {
			v.addError(fmt.Sprintf("%s has duplicate choice %q", where, cd.Label))
		}
		seen[cd.Label] = true

		for _, e := range cd.Effects {
			if e.Kind == "" {
				e.Kind = state.EffectSet
			}
			if err := e.Validate(nil); err != nil {
				v.addError(fmt.Sprintf("%s choice %q: %v", where, cd.Label, err))
				continue
			}
			if err := e.Validate(state.TrackedAttributes()); err != nil {
				v.addWarning(fmt.Sprintf("%s choice %q: %v", where, cd.Label, err))
			}
		}
	}
}

func (v *ContentValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *ContentValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  warning: "+msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

func isValidContentFilename(name string) bool {
	// Allow 'x.' prefix for experimental characters
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
