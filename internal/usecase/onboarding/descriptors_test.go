package onboarding

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/pkg/descriptor"
)

const testManifest = `
package_name: sonata-demo
package_version: "0.2"
package_vendor: eu.sonata-nfv.package
description: demo
entry_service_template: /service_descriptors/sonata-demo.yml
package_content:
  - name: /service_descriptors/sonata-demo.yml
    content-type: application/sonata.service_descriptor
  - name: /function_descriptors/iperf-vnfd.yml
    content-type: application/sonata.function_descriptor
  - name: /docker_files/iperf/Dockerfile
    content-type: application/sonata.docker_files
`

func demoFS() fstest.MapFS {
	return fstest.MapFS{
		"META-INF/MANIFEST.MF":                {Data: []byte(testManifest)},
		"service_descriptors/sonata-demo.yml": {Data: []byte("ns_name: sonata-demo\nns_vendor: eu.sonata-nfv\nns_version: \"0.1\"\n")},
		"function_descriptors/iperf-vnfd.yml": {Data: []byte("vnf_name: iperf-vnf\nvnf_vendor: eu.sonata-nfv\nvnf_version: \"0.1\"\n")},
		"docker_files/iperf/Dockerfile":       {Data: []byte("FROM alpine\n")},
	}
}

func TestParseParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ParsePolicy
		wantErr bool
	}{
		{"", ParseLenient, false},
		{"lenient", ParseLenient, false},
		{"strict", ParseStrict, false},
		{"loose", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	l := NewDescriptorLoader(ParseLenient)

	m, warnings, err := l.LoadManifest(context.Background(), demoFS())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "sonata-demo", m.PackageName)
	assert.Equal(t, "0.2", m.PackageVersion)
	assert.Equal(t, "/service_descriptors/sonata-demo.yml", m.EntryServiceTemplate)
	require.Len(t, m.PackageContent, 3)
	assert.Equal(t, domain.ContentTypeDockerFiles, m.PackageContent[2].ContentType)
	assert.Equal(t, "demo", m.Raw["description"])
}

func TestLoadManifest_Missing(t *testing.T) {
	l := NewDescriptorLoader(ParseLenient)

	_, _, err := l.LoadManifest(context.Background(), fstest.MapFS{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoadManifest_Malformed(t *testing.T) {
	fsys := fstest.MapFS{
		"META-INF/MANIFEST.MF": {Data: []byte("package_name: [unclosed\n")},
	}

	t.Run("lenient", func(t *testing.T) {
		m, warnings, err := NewDescriptorLoader(ParseLenient).LoadManifest(context.Background(), fsys)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "MANIFEST.MF")
		assert.Empty(t, m.PackageName)
		assert.Empty(t, m.PackageContent)
	})

	t.Run("strict", func(t *testing.T) {
		_, _, err := NewDescriptorLoader(ParseStrict).LoadManifest(context.Background(), fsys)
		var pe *descriptor.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "META-INF/MANIFEST.MF", pe.Path)
	})
}

func TestLoadManifest_Validation(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		field    string
	}{
		{
			name:     "bad version",
			manifest: "package_version: not-a-version\n",
			field:    "package_version",
		},
		{
			name:     "missing content type",
			manifest: "package_content:\n  - name: /a.yml\n",
			field:    "package_content[0].content-type",
		},
		{
			name:     "missing name",
			manifest: "package_content:\n  - content-type: application/sonata.docker_files\n",
			field:    "package_content[0].name",
		},
		{
			name:     "dangling reference",
			manifest: "package_content:\n  - name: /nope.yml\n    content-type: application/sonata.function_descriptor\n",
			field:    "package_content[0].name",
		},
		{
			name:     "escaping reference",
			manifest: "package_content:\n  - name: /../../etc/passwd\n    content-type: application/sonata.function_descriptor\n",
			field:    "package_content[0].name",
		},
		{
			name:     "directory reference",
			manifest: "package_content:\n  - name: /docker_files\n    content-type: application/sonata.docker_files\n",
			field:    "package_content[0].name",
		},
		{
			name:     "dangling template",
			manifest: "entry_service_template: /missing.yml\n",
			field:    "entry_service_template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"META-INF/MANIFEST.MF":          {Data: []byte(tt.manifest)},
				"docker_files/iperf/Dockerfile": {Data: []byte("FROM alpine\n")},
			}
			_, _, err := NewDescriptorLoader(ParseLenient).LoadManifest(context.Background(), fsys)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, domain.ManifestPath, ve.Path)
		})
	}
}

func TestLoadServiceDescriptor(t *testing.T) {
	ctx := context.Background()
	l := NewDescriptorLoader(ParseLenient)
	m, _, err := l.LoadManifest(ctx, demoFS())
	require.NoError(t, err)

	nsd, warnings, err := l.LoadServiceDescriptor(ctx, demoFS(), m)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, nsd)
	assert.Equal(t, "sonata-demo", nsd.Name)
	assert.Equal(t, "eu.sonata-nfv", nsd.Vendor)
	assert.Equal(t, "0.1", nsd.Version)
}

func TestLoadServiceDescriptor_NoTemplate(t *testing.T) {
	l := NewDescriptorLoader(ParseLenient)

	nsd, warnings, err := l.LoadServiceDescriptor(context.Background(), demoFS(), &domain.Manifest{})
	require.NoError(t, err)
	assert.Nil(t, nsd)
	assert.Len(t, warnings, 1)
}

func TestLoadServiceDescriptor_MalformedLenient(t *testing.T) {
	fsys := demoFS()
	fsys["service_descriptors/sonata-demo.yml"] = &fstest.MapFile{Data: []byte("ns_name: [oops\n")}
	m := &domain.Manifest{EntryServiceTemplate: "/service_descriptors/sonata-demo.yml"}

	nsd, warnings, err := NewDescriptorLoader(ParseLenient).LoadServiceDescriptor(context.Background(), fsys, m)
	require.NoError(t, err)
	require.NotNil(t, nsd)
	assert.Empty(t, nsd.Name)
	assert.Len(t, warnings, 1)
}

func TestLoadFunctionDescriptors(t *testing.T) {
	ctx := context.Background()
	l := NewDescriptorLoader(ParseLenient)
	m, _, err := l.LoadManifest(ctx, demoFS())
	require.NoError(t, err)

	vnfds, warnings, err := l.LoadFunctionDescriptors(ctx, demoFS(), m)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, vnfds, 1)

	vnfd := vnfds["iperf-vnf"]
	assert.Equal(t, "iperf-vnf", vnfd.Name)
	assert.Equal(t, "eu.sonata-nfv", vnfd.Vendor)
	assert.Equal(t, "/function_descriptors/iperf-vnfd.yml", vnfd.Source)
}

func TestLoadFunctionDescriptors_Errors(t *testing.T) {
	entries := func(names ...string) *domain.Manifest {
		m := &domain.Manifest{}
		for _, n := range names {
			m.PackageContent = append(m.PackageContent, domain.ContentEntry{
				Name:        n,
				ContentType: domain.ContentTypeFunctionDescriptor,
			})
		}
		return m
	}

	tests := []struct {
		name  string
		files map[string]string
		m     *domain.Manifest
		field string
	}{
		{
			name:  "missing vnf_name",
			files: map[string]string{"a.yml": "vnf_vendor: x\n"},
			m:     entries("/a.yml"),
			field: "vnf_name",
		},
		{
			name:  "non string vnf_name",
			files: map[string]string{"a.yml": "vnf_name: [1, 2]\n"},
			m:     entries("/a.yml"),
			field: "vnf_name",
		},
		{
			name: "duplicate vnf_name",
			files: map[string]string{
				"a.yml": "vnf_name: same\n",
				"b.yml": "vnf_name: same\n",
			},
			m:     entries("/a.yml", "/b.yml"),
			field: "vnf_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for name, data := range tt.files {
				fsys[name] = &fstest.MapFile{Data: []byte(data)}
			}

			_, _, err := NewDescriptorLoader(ParseLenient).LoadFunctionDescriptors(context.Background(), fsys, tt.m)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoadFunctionDescriptors_EmptySkipped(t *testing.T) {
	fsys := fstest.MapFS{
		"empty.yml":  {Data: []byte("")},
		"broken.yml": {Data: []byte("vnf_name: [oops\n")},
		"good.yml":   {Data: []byte("vnf_name: good\n")},
	}
	m := &domain.Manifest{PackageContent: []domain.ContentEntry{
		{Name: "/empty.yml", ContentType: domain.ContentTypeFunctionDescriptor},
		{Name: "/broken.yml", ContentType: domain.ContentTypeFunctionDescriptor},
		{Name: "/good.yml", ContentType: domain.ContentTypeFunctionDescriptor},
	}}

	vnfds, warnings, err := NewDescriptorLoader(ParseLenient).LoadFunctionDescriptors(context.Background(), fsys, m)
	require.NoError(t, err)
	assert.Len(t, vnfds, 1)
	assert.Contains(t, vnfds, "good")
	// broken.yml yields a parse warning and a skip warning.
	assert.Len(t, warnings, 3)
}
