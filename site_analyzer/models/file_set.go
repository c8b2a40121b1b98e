package models

// FileSet holds the web source files discovered for one invocation.
// Files are distinct, sorted, and expressed relative to TargetDir so the
// coding agent can be handed directory-relative references. Files found in
// sibling directories of RootDir carry "../" prefixes.
type FileSet struct {
	RootDir   string
	TargetDir string
	Files     []string
}

// IsEmpty reports whether discovery found no matching files.
func (fs *FileSet) IsEmpty() bool {
	return len(fs.Files) == 0
}

// SiteFile holds the content and the structural outline of a single file.
type SiteFile struct {
	RelativePath string
	Code         string
	Outline      string
}

// SiteContext is the presentable form of a FileSet, built per display mode.
type SiteContext struct {
	Files       []SiteFile
	RawContexts []string
}
