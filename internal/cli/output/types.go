package output

import (
	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
)

// TableInfo summarizes one table of an archive.
type TableInfo struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	IDs     []int  `json:"ids"`
}

// NewTableInfo summarizes t stored under name.
func NewTableInfo(name string, t *cdt.Table) TableInfo {
	ids := t.IDs
	if ids == nil {
		ids = []int{}
	}
	return TableInfo{Name: name, Rows: t.NumRows(), Columns: t.NumColumns(), IDs: ids}
}

// DiagnosticInfo is the JSON form of a read or write diagnostic.
type DiagnosticInfo struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Table    string `json:"table,omitempty"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
}

// NewDiagnosticInfos converts diagnostics for output. The result is never nil.
func NewDiagnosticInfos(diags ddf.Diagnostics) []DiagnosticInfo {
	out := make([]DiagnosticInfo, 0, len(diags))
	for _, d := range diags {
		out = append(out, DiagnosticInfo{
			Kind:     d.Kind.String(),
			Severity: d.Kind.Severity().String(),
			Table:    d.Table,
			Path:     d.Path,
			Message:  d.String(),
		})
	}
	return out
}

// ArchiveInfo is the JSON form of the list command.
type ArchiveInfo struct {
	Path        string           `json:"path"`
	Tables      []TableInfo      `json:"tables"`
	Unknown     []string         `json:"unknown"`
	Diagnostics []DiagnosticInfo `json:"diagnostics"`
}

// SlotInfo is one registry entry.
type SlotInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	File  string `json:"file"`
}

// TableOutput is the JSON form of the show command.
type TableOutput struct {
	Name    string     `json:"name"`
	IDs     []int      `json:"ids"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total_rows"`
}

// ExtractResult reports one archive of an extract or pack run.
type ExtractResult struct {
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	Tables      int              `json:"tables"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []DiagnosticInfo `json:"diagnostics"`
}

// VersionInfo is the JSON form of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
}

// DatabaseResult is the JSON form of the db commands.
type DatabaseResult struct {
	Database    string           `json:"database"`
	Archive     string           `json:"archive"`
	Tables      []TableInfo      `json:"tables"`
	Diagnostics []DiagnosticInfo `json:"diagnostics"`
}
