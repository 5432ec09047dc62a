package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
	"github.com/bnema/gatekeeper/internal/adapters/in/cli/ui/components"
	"github.com/bnema/gatekeeper/internal/adapters/in/cli/ui/styles"
	"github.com/bnema/gatekeeper/pkg/bytesize"
)

var cliWriteLine = func(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func cliRenderTitle(msg string) string {
	return styles.Theme.Title.Render(msg)
}

func cliRenderMuted(msg string) string {
	return styles.Theme.Muted.Render(msg)
}

func cliRenderMeta(label, value string) string {
	return styles.Theme.Bold.Render(label) + " " + value
}

// isTTY reports whether w is an interactive terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newTable returns a table that drops colors when w is not a terminal.
func newTable(w io.Writer, columns ...components.Column) *components.Table {
	t := components.NewTable(columns...)
	if !isTTY(w) {
		t.Plain()
	}
	return t
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// renderUUIDList prints one id per line, or a muted hint when empty.
func renderUUIDList(w io.Writer, title string, ids []string, empty string) error {
	if len(ids) == 0 {
		return cliWriteLine(w, cliRenderMuted(empty))
	}
	if err := cliWriteLine(w, cliRenderTitle(fmt.Sprintf("%s (%d)", title, len(ids)))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := cliWriteLine(w, styles.RenderListItem(id)); err != nil {
			return err
		}
	}
	return nil
}

// renderUpload prints the outcome of one upload.
func renderUpload(w io.Writer, path string, resp *dto.UploadResponse) error {
	lines := []string{
		styles.RenderSuccess(fmt.Sprintf("%s onboarded", path)),
		cliRenderMeta("Service UUID:", valueOr(deref(resp.ServiceUUID), "-")),
		cliRenderMeta("Size:", bytesize.Format(resp.Size)),
		cliRenderMeta("SHA1:", valueOr(deref(resp.SHA1), "-")),
	}
	return cliWriteLine(w, strings.Join(lines, "\n"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// renderPackageDetail prints the onboarding record of one service.
func renderPackageDetail(w io.Writer, d *dto.PackageDetail) error {
	lines := []string{
		cliRenderTitle("Service " + d.ServiceUUID),
		cliRenderMeta("State:", styles.RenderState(d.State, d.Error != "")),
		cliRenderMeta("Package:", valueOr(strings.TrimSpace(d.PackageName+" "+d.PackageVersion), "-")),
		cliRenderMeta("NSD:", valueOr(d.NSDName, "-")),
		cliRenderMeta("VNFDs:", valueOr(strings.Join(d.VNFDNames, ", "), "-")),
		cliRenderMeta("Size:", bytesize.Format(d.Size)),
		cliRenderMeta("SHA1:", d.SHA1),
		cliRenderMeta("Digest:", valueOr(d.Digest, "-")),
		cliRenderMeta("Uploaded:", formatTime(d.UploadedAt)),
		cliRenderMeta("Updated:", formatTime(d.UpdatedAt)),
	}
	if d.Error != "" {
		lines = append(lines, styles.RenderError(d.Error))
	}
	if err := cliWriteLine(w, strings.Join(lines, "\n")); err != nil {
		return err
	}

	if len(d.DockerFiles) > 0 {
		names := make([]string, 0, len(d.DockerFiles))
		for name := range d.DockerFiles {
			names = append(names, name)
		}
		sort.Strings(names)

		t := newTable(w, components.Column{Title: "IMAGE", Width: 24}, components.Column{Title: "DOCKER FILE", Width: 60})
		for _, name := range names {
			t.AddRow(name, d.DockerFiles[name])
		}
		if err := cliWriteLine(w, "\n"+cliRenderTitle("Docker files")+"\n"+t.Render()); err != nil {
			return err
		}
	}

	if len(d.Builds) > 0 {
		t := newTable(w,
			components.Column{Title: "IMAGE", Width: 24},
			components.Column{Title: "RESULT", Width: 8},
			components.Column{Title: "DURATION", Width: 10},
			components.Column{Title: "ERROR", Width: 50},
		)
		for _, b := range d.Builds {
			result := styles.RenderSuccess("ok")
			if !b.Success {
				result = styles.RenderError("failed")
			}
			t.AddRow(b.ImageName, result, (time.Duration(b.DurationMs) * time.Millisecond).String(), valueOr(b.Error, "-"))
		}
		if err := cliWriteLine(w, "\n"+cliRenderTitle("Builds")+"\n"+t.Render()); err != nil {
			return err
		}
	}

	for _, path := range d.UnresolvedArtifacts {
		if err := cliWriteLine(w, styles.RenderWarning("unresolved docker file "+path)); err != nil {
			return err
		}
	}
	for _, warning := range d.Warnings {
		if err := cliWriteLine(w, styles.RenderWarning(warning)); err != nil {
			return err
		}
	}
	return nil
}

// renderHistory prints the onboarding history table.
func renderHistory(w io.Writer, records []dto.PackageRecord) error {
	if len(records) == 0 {
		return cliWriteLine(w, cliRenderMuted("No packages uploaded yet."))
	}

	t := newTable(w,
		components.Column{Title: "SERVICE UUID", Width: 36},
		components.Column{Title: "PACKAGE", Width: 24},
		components.Column{Title: "STATE", Width: 28},
		components.Column{Title: "SIZE", Width: 10},
		components.Column{Title: "UPLOADED", Width: 19},
	)
	for _, r := range records {
		t.AddRow(
			r.ServiceUUID,
			valueOr(r.PackageName, "-"),
			styles.RenderState(r.State, r.Error != ""),
			bytesize.Format(r.Size),
			formatTime(r.UploadedAt),
		)
	}
	return cliWriteLine(w, t.Render())
}

func cliRenderError(msg string) string {
	return styles.RenderError(msg)
}
