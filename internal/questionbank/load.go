package questionbank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

//go:embed bank.schema.json
var schemaJSON []byte

const schemaURL = "bank.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse bank schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add bank schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// ValidationError is one problem in a bank, located by a JSON pointer
// into the document.
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	return e.Path + ": " + e.Msg
}

// ValidationErrors collects every problem found in a bank. errors.As
// reaches the individual *ValidationError values.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i := range v {
		msgs[i] = v[i].Error()
	}
	return fmt.Sprintf("invalid question bank (%d problems):\n  %s", len(v), strings.Join(msgs, "\n  "))
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i := range v {
		errs[i] = &v[i]
	}
	return errs
}

// Load reads and validates the bank at path. Files ending in .json are
// decoded as JSON and everything else as YAML.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML bank. JSON input is accepted too,
// as YAML is a superset of it.
func Parse(data []byte) (*Bank, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if errs := b.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &b, nil
}

// ParseJSON validates and decodes a JSON bank.
func ParseJSON(data []byte) (*Bank, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var b Bank
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if errs := b.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &b, nil
}

func validateDocument(doc any) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return ValidationErrors{{Path: "/", Msg: err.Error()}}
	}
	var errs ValidationErrors
	collectLeaves(ve, &errs)
	return errs
}

func collectLeaves(e *jsonschema.ValidationError, out *ValidationErrors) {
	if len(e.Causes) == 0 {
		unit := e.BasicOutput()
		path := unit.InstanceLocation
		if path == "" {
			path = "/"
		}
		msg := "invalid"
		if unit.Error != nil {
			msg = unit.Error.String()
		}
		*out = append(*out, ValidationError{Path: path, Msg: msg})
		return
	}
	for _, c := range e.Causes {
		collectLeaves(c, out)
	}
}

// Validate applies the checks the schema cannot express.
func (b *Bank) Validate() ValidationErrors {
	var errs ValidationErrors

	if msg := checkVersion(b.Version); msg != "" {
		errs = append(errs, ValidationError{Path: "/version", Msg: msg})
	}

	seenTests := make(map[string]int)
	for i, t := range b.Tests {
		path := fmt.Sprintf("/tests/%d", i)
		if prev, dup := seenTests[t.ID]; dup {
			errs = append(errs, ValidationError{Path: path + "/id", Msg: fmt.Sprintf("duplicate test id %q (also /tests/%d)", t.ID, prev)})
		} else {
			seenTests[t.ID] = i
		}
		if t.TimeLimit <= 0 {
			errs = append(errs, ValidationError{Path: path + "/time_limit", Msg: fmt.Sprintf("time limit must be positive, got %d", t.TimeLimit)})
		}
		if len(t.Items) == 0 {
			errs = append(errs, ValidationError{Path: path + "/items", Msg: "test has no questions"})
		}
		for j, item := range t.Items {
			errs = append(errs, item.check(fmt.Sprintf("%s/items/%d", path, j))...)
		}
	}

	seenProblems := make(map[string]int)
	for i, p := range b.Problems {
		if prev, dup := seenProblems[p.ID]; dup {
			errs = append(errs, ValidationError{Path: fmt.Sprintf("/problems/%d/id", i), Msg: fmt.Sprintf("duplicate problem id %q (also /problems/%d)", p.ID, prev)})
			continue
		}
		seenProblems[p.ID] = i
	}

	return errs
}

func checkVersion(v string) string {
	canon := v
	if !strings.HasPrefix(canon, "v") {
		canon = "v" + canon
	}
	if !semver.IsValid(canon) {
		return fmt.Sprintf("%q is not a semantic version", v)
	}
	if major := semver.Major(canon); major != SupportedMajor {
		return fmt.Sprintf("unsupported bank version %s (want %s.x)", v, SupportedMajor)
	}
	return ""
}
