package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/Masterminds/semver/v3"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
	"github.com/bnema/gatekeeper/pkg/descriptor"
)

// ParsePolicy decides what happens when a descriptor is not valid YAML.
type ParsePolicy string

const (
	// ParseLenient logs the error and continues with an empty document.
	ParseLenient ParsePolicy = "lenient"
	// ParseStrict halts onboarding with the parse error.
	ParseStrict ParsePolicy = "strict"
)

// ParseParsePolicy validates a configured policy name. Empty means lenient.
func ParseParsePolicy(s string) (ParsePolicy, error) {
	switch ParsePolicy(s) {
	case "", ParseLenient:
		return ParseLenient, nil
	case ParseStrict:
		return ParseStrict, nil
	default:
		return "", fmt.Errorf("unknown parse policy %q (want %q or %q)", s, ParseLenient, ParseStrict)
	}
}

type manifestDoc struct {
	PackageName          string            `yaml:"package_name"`
	PackageVersion       string            `yaml:"package_version"`
	PackageVendor        string            `yaml:"package_vendor"`
	PackageGroup         string            `yaml:"package_group"`
	Description          string            `yaml:"description"`
	EntryServiceTemplate string            `yaml:"entry_service_template"`
	PackageContent       []contentEntryDoc `yaml:"package_content"`
}

type contentEntryDoc struct {
	Name        string `yaml:"name"`
	ContentType string `yaml:"content-type"`
	MD5         string `yaml:"md5"`
}

type serviceDescriptorDoc struct {
	Name    string `yaml:"ns_name"`
	Vendor  string `yaml:"ns_vendor"`
	Version string `yaml:"ns_version"`
}

type functionDescriptorDoc struct {
	Vendor  string `yaml:"vnf_vendor"`
	Version string `yaml:"vnf_version"`
}

// DescriptorLoader reads the manifest and descriptors of an extracted
// package. Each method returns warnings for documents it had to substitute
// or skip.
type DescriptorLoader struct {
	policy ParsePolicy
}

// NewDescriptorLoader creates a loader with the given parse policy.
func NewDescriptorLoader(policy ParsePolicy) *DescriptorLoader {
	if policy == "" {
		policy = ParseLenient
	}
	return &DescriptorLoader{policy: policy}
}

// LoadManifest reads domain.ManifestPath from root and checks that every
// path it references exists inside root.
func (l *DescriptorLoader) LoadManifest(ctx context.Context, root fs.FS) (*domain.Manifest, []string, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldAction: "LoadManifest",
		logging.FieldPath:   domain.ManifestPath,
	})

	doc, warnings, err := l.read(ctx, root, domain.ManifestPath)
	if err != nil {
		return nil, nil, err
	}

	var raw manifestDoc
	if err := doc.Decode(&raw); err != nil {
		return nil, nil, &domain.ValidationError{Path: domain.ManifestPath, Reason: err.Error()}
	}
	rawMap, err := doc.Map()
	if err != nil {
		return nil, nil, &domain.ValidationError{Path: domain.ManifestPath, Reason: err.Error()}
	}

	m := &domain.Manifest{
		PackageName:          raw.PackageName,
		PackageVersion:       raw.PackageVersion,
		PackageVendor:        raw.PackageVendor,
		PackageGroup:         raw.PackageGroup,
		Description:          raw.Description,
		EntryServiceTemplate: raw.EntryServiceTemplate,
		Raw:                  rawMap,
	}
	for _, e := range raw.PackageContent {
		m.PackageContent = append(m.PackageContent, domain.ContentEntry{
			Name:        e.Name,
			ContentType: e.ContentType,
			MD5:         e.MD5,
		})
	}

	if err := validateManifest(root, m); err != nil {
		return nil, nil, err
	}

	log := logging.FromCtx(ctx)
	log.Debug().
		Str("package_name", m.PackageName).
		Int(logging.FieldCount, len(m.PackageContent)).
		Msg("manifest loaded")

	return m, warnings, nil
}

// LoadServiceDescriptor reads the entry service template named by m. A
// manifest without one yields a nil descriptor and a warning.
func (l *DescriptorLoader) LoadServiceDescriptor(ctx context.Context, root fs.FS, m *domain.Manifest) (*domain.ServiceDescriptor, []string, error) {
	if m == nil || m.EntryServiceTemplate == "" {
		return nil, []string{"manifest declares no entry_service_template"}, nil
	}

	rel, err := entryPath(m.EntryServiceTemplate, "entry_service_template")
	if err != nil {
		return nil, nil, err
	}
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldAction: "LoadServiceDescriptor",
		logging.FieldPath:   rel,
	})

	doc, warnings, err := l.read(ctx, root, rel)
	if err != nil {
		return nil, nil, err
	}

	var raw serviceDescriptorDoc
	if err := doc.Decode(&raw); err != nil {
		return nil, nil, &domain.ValidationError{Path: m.EntryServiceTemplate, Reason: err.Error()}
	}
	rawMap, err := doc.Map()
	if err != nil {
		return nil, nil, &domain.ValidationError{Path: m.EntryServiceTemplate, Reason: err.Error()}
	}

	return &domain.ServiceDescriptor{
		Name:    raw.Name,
		Vendor:  raw.Vendor,
		Version: raw.Version,
		Raw:     rawMap,
	}, warnings, nil
}

// LoadFunctionDescriptors reads every function descriptor listed in m,
// keyed by vnf_name. Empty documents are skipped with a warning.
func (l *DescriptorLoader) LoadFunctionDescriptors(ctx context.Context, root fs.FS, m *domain.Manifest) (map[string]domain.FunctionDescriptor, []string, error) {
	vnfds := make(map[string]domain.FunctionDescriptor)
	var warnings []string

	for _, entry := range m.EntriesOfType(domain.ContentTypeFunctionDescriptor) {
		rel, err := entryPath(entry.Name, "package_content.name")
		if err != nil {
			return nil, nil, err
		}
		entryCtx := logging.CtxWithFields(ctx, map[string]any{
			logging.FieldAction: "LoadFunctionDescriptors",
			logging.FieldPath:   rel,
		})
		log := logging.FromCtx(entryCtx)

		doc, w, err := l.read(entryCtx, root, rel)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)

		if doc.IsEmpty() {
			log.Warn().Msg("empty function descriptor skipped")
			warnings = append(warnings, fmt.Sprintf("%s: empty function descriptor skipped", entry.Name))
			continue
		}

		rawMap, err := doc.Map()
		if err != nil {
			return nil, nil, &domain.ValidationError{Path: entry.Name, Reason: err.Error()}
		}
		name, ok := rawMap["vnf_name"].(string)
		if !ok || name == "" {
			return nil, nil, &domain.ValidationError{Path: entry.Name, Field: "vnf_name", Reason: "must be a non-empty string"}
		}
		if prev, dup := vnfds[name]; dup {
			return nil, nil, &domain.ValidationError{
				Path:   entry.Name,
				Field:  "vnf_name",
				Reason: fmt.Sprintf("duplicate name %q, already declared by %s", name, prev.Source),
			}
		}

		var raw functionDescriptorDoc
		if err := doc.Decode(&raw); err != nil {
			return nil, nil, &domain.ValidationError{Path: entry.Name, Reason: err.Error()}
		}

		vnfds[name] = domain.FunctionDescriptor{
			Name:    name,
			Vendor:  raw.Vendor,
			Version: raw.Version,
			Source:  entry.Name,
			Raw:     rawMap,
		}
		log.Debug().Str("vnf_name", name).Msg("function descriptor loaded")
	}

	return vnfds, warnings, nil
}

// read parses one document and applies the parse policy.
func (l *DescriptorLoader) read(ctx context.Context, root fs.FS, name string) (descriptor.Document, []string, error) {
	doc, err := descriptor.ParseFile(root, name)
	if err == nil {
		return doc, nil, nil
	}

	var pe *descriptor.ParseError
	switch {
	case errors.As(err, &pe):
		if l.policy == ParseStrict {
			return descriptor.Document{}, nil, err
		}
		log := logging.FromCtx(ctx)
		log.Warn().Err(err).Msg("malformed descriptor replaced by an empty document")
		return descriptor.Empty(), []string{fmt.Sprintf("%s: malformed, treated as empty", name)}, nil
	case errors.Is(err, fs.ErrNotExist):
		return descriptor.Document{}, nil, &domain.ValidationError{Path: name, Reason: "file does not exist"}
	default:
		return descriptor.Document{}, nil, &domain.StorageError{Op: "read", Path: name, Err: err}
	}
}

func validateManifest(root fs.FS, m *domain.Manifest) error {
	if m.PackageVersion != "" {
		if _, err := semver.NewVersion(m.PackageVersion); err != nil {
			return &domain.ValidationError{
				Path:   domain.ManifestPath,
				Field:  "package_version",
				Reason: fmt.Sprintf("%q is not a semantic version", m.PackageVersion),
			}
		}
	}

	for i, e := range m.PackageContent {
		field := fmt.Sprintf("package_content[%d]", i)
		if e.Name == "" {
			return &domain.ValidationError{Path: domain.ManifestPath, Field: field + ".name", Reason: "missing"}
		}
		if e.ContentType == "" {
			return &domain.ValidationError{Path: domain.ManifestPath, Field: field + ".content-type", Reason: "missing"}
		}
		if err := checkReference(root, e.Name, field+".name"); err != nil {
			return err
		}
	}

	if m.EntryServiceTemplate != "" {
		if err := checkReference(root, m.EntryServiceTemplate, "entry_service_template"); err != nil {
			return err
		}
	}
	return nil
}

// checkReference verifies that a declared path names an existing file
// inside root.
func checkReference(root fs.FS, declared, field string) error {
	rel, err := entryPath(declared, field)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ve.Path = domain.ManifestPath
		}
		return err
	}

	info, err := fs.Stat(root, rel)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &domain.ValidationError{
			Path:   domain.ManifestPath,
			Field:  field,
			Reason: fmt.Sprintf("referenced file %q does not exist", declared),
		}
	case err != nil:
		return &domain.StorageError{Op: "stat", Path: rel, Err: err}
	case info.IsDir():
		return &domain.ValidationError{
			Path:   domain.ManifestPath,
			Field:  field,
			Reason: fmt.Sprintf("referenced path %q is a directory", declared),
		}
	}
	return nil
}
