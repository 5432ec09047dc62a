package domain

// Content types recognised in a package manifest.
const (
	ContentTypeServiceDescriptor  = "application/sonata.service_descriptor"
	ContentTypeFunctionDescriptor = "application/sonata.function_descriptor"
	ContentTypeDockerFiles        = "application/sonata.docker_files"
)

// ManifestPath is the manifest location relative to the extraction root.
const ManifestPath = "META-INF/MANIFEST.MF"

// Manifest is the package descriptor found at ManifestPath.
type Manifest struct {
	PackageName          string
	PackageVersion       string
	PackageVendor        string
	PackageGroup         string
	Description          string
	EntryServiceTemplate string
	PackageContent       []ContentEntry
	Raw                  map[string]any
}

// ContentEntry declares one file shipped in the package.
type ContentEntry struct {
	Name        string
	ContentType string
	MD5         string
}

// EntriesOfType returns the content entries declaring contentType, in order.
func (m *Manifest) EntriesOfType(contentType string) []ContentEntry {
	if m == nil {
		return nil
	}
	var out []ContentEntry
	for _, e := range m.PackageContent {
		if e.ContentType == contentType {
			out = append(out, e)
		}
	}
	return out
}

// ServiceDescriptor is the network service descriptor of a package.
type ServiceDescriptor struct {
	Name    string
	Vendor  string
	Version string
	Raw     map[string]any
}

// FunctionDescriptor describes one network function of a package.
type FunctionDescriptor struct {
	Name    string
	Vendor  string
	Version string
	Source  string // content entry the descriptor was read from
	Raw     map[string]any
}
