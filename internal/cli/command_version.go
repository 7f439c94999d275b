package cli

var versionCommandDef = commandDef{
	Name:    "version",
	Summary: "Print build version information",
	Doc: commandDoc{
		Synopsis: "supa version",
		Description: []string{
			"Prints the build version/commit/date.",
		},
	},
	Run: runVersion,
}

type versionDocument struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func runVersion(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	doc := versionDocument{Version: r.deps.Version, Commit: r.deps.Commit, Date: r.deps.Date}
	return r.emit(doc, func(out *usageWriter) {
		out.f("supa %s (commit=%s date=%s)\n", doc.Version, doc.Commit, doc.Date)
	})
}
