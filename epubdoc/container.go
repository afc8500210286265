package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
)

// Container-related errors.
var (
	ErrNoContainer      = errors.New("epub: missing META-INF/container.xml")
	ErrInvalidContainer = errors.New("epub: invalid container.xml")
	ErrNoRootfile       = errors.New("epub: no rootfile found in container.xml")
)

const containerPath = "META-INF/container.xml"

const opfMediaType = "application/oebps-package+xml"

// containerXML represents the structure of META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name  `xml:"container"`
	Version   string    `xml:"version,attr"`
	Rootfiles rootfiles `xml:"rootfiles"`
}

type rootfiles struct {
	Rootfile []rootfile `xml:"rootfile"`
}

type rootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// parseContainer parses META-INF/container.xml and returns the path to the
// OPF file.
func parseContainer(files map[string]*zip.File) (string, error) {
	f, ok := files[containerPath]
	if !ok {
		return "", ErrNoContainer
	}

	data, err := readZipFile(f)
	if err != nil {
		return "", err
	}

	var container containerXML
	if err := xml.Unmarshal(data, &container); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}

	var fallback string
	for _, rf := range container.Rootfiles.Rootfile {
		if rf.FullPath == "" {
			continue
		}
		if rf.MediaType == opfMediaType || rf.MediaType == "" {
			return rf.FullPath, nil
		}
		if fallback == "" {
			fallback = rf.FullPath
		}
	}
	if fallback != "" {
		return fallback, nil
	}

	return "", ErrNoRootfile
}
