package engine

import "io/fs"

// Context names where templates come from and where output goes.
// SourceID identifies TmplFS in the template cache; two contexts with the
// same SourceID must serve the same templates.
type Context struct {
	TmplFS     fs.FS
	SourceID   string
	OutputRoot string
}

func NewContext(tmplFS fs.FS, sourceID, outputRoot string) Context {
	return Context{
		TmplFS:     tmplFS,
		SourceID:   sourceID,
		OutputRoot: outputRoot,
	}
}
