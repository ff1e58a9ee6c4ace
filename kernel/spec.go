package kernel

// Spec is the statically-declared identity of a kernel kind. It doubles as
// the fallback when a live kernel does not answer the identity request
// during Start — session creation never fails purely because introspection
// failed.
type Spec struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Language      string `json:"language"`
	FileExtension string `json:"file_extension,omitempty"`
	MimeType      string `json:"mimetype,omitempty"`
	Version       string `json:"version,omitempty"`
}

// Info is the cached identity of a running kernel: the registered Spec
// overlaid with whatever the kernel reported about itself.
type Info struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Language      string `json:"language"`
	FileExtension string `json:"file_extension"`
	MimeType      string `json:"mimetype"`
	Version       string `json:"version,omitempty"`
}

// infoFromSpec builds the fallback identity from static metadata alone.
func infoFromSpec(spec Spec) Info {
	info := Info{
		Name:          spec.Name,
		DisplayName:   spec.DisplayName,
		Language:      spec.Language,
		FileExtension: spec.FileExtension,
		MimeType:      spec.MimeType,
		Version:       spec.Version,
	}
	if info.FileExtension == "" {
		info.FileExtension = ".txt"
	}
	if info.MimeType == "" {
		info.MimeType = "text/plain"
	}
	return info
}

// overlay fills info from a kernel identity reply, keeping spec values for
// anything the kernel left blank.
func (i Info) overlay(reply Message) Info {
	if reply.Language != "" {
		i.Language = reply.Language
	}
	if reply.FileExtension != "" {
		i.FileExtension = reply.FileExtension
	}
	if reply.MimeType != "" {
		i.MimeType = reply.MimeType
	}
	if reply.Version != "" {
		i.Version = reply.Version
	}
	return i
}
