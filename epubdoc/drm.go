package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"path"
	"strings"
)

// ErrDRMProtected is returned for packages whose content documents are
// encrypted.
var ErrDRMProtected = errors.New("epub: DRM-protected content cannot be processed")

// encryptionXML represents the structure of META-INF/encryption.xml.
type encryptionXML struct {
	XMLName       xml.Name        `xml:"encryption"`
	EncryptedData []encryptedData `xml:"EncryptedData"`
}

type encryptedData struct {
	EncryptionMethod struct {
		Algorithm string `xml:"Algorithm,attr"`
	} `xml:"EncryptionMethod"`
	CipherData struct {
		CipherReference struct {
			URI string `xml:"URI,attr"`
		} `xml:"CipherReference"`
	} `xml:"CipherData"`
}

// checkForDRM rejects Adobe ADEPT packages and packages with encrypted
// content documents. Font obfuscation alone is accepted.
func checkForDRM(files map[string]*zip.File) error {
	if _, ok := files["META-INF/rights.xml"]; ok {
		return ErrDRMProtected
	}

	f, ok := files["META-INF/encryption.xml"]
	if !ok {
		return nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return err
	}

	var enc encryptionXML
	if err := xml.Unmarshal(data, &enc); err != nil {
		// An unreadable encryption manifest is treated as DRM.
		return ErrDRMProtected
	}

	for _, ed := range enc.EncryptedData {
		if isFontObfuscation(ed.EncryptionMethod.Algorithm) {
			continue
		}
		if isContentFile(ed.CipherData.CipherReference.URI) {
			return ErrDRMProtected
		}
	}
	return nil
}

// isFontObfuscation reports whether algorithm is the IDPF or Adobe font
// obfuscation method.
func isFontObfuscation(algorithm string) bool {
	switch strings.TrimSpace(algorithm) {
	case "http://www.idpf.org/2008/embedding", "http://ns.adobe.com/pdf/enc#RC":
		return true
	}
	algorithm = strings.ToLower(algorithm)
	return strings.Contains(algorithm, "obfuscation") &&
		(strings.Contains(algorithm, "idpf.org") || strings.Contains(algorithm, "adobe.com"))
}

// isContentFile reports whether uri names a document whose encryption
// makes the book unreadable.
func isContentFile(uri string) bool {
	switch strings.ToLower(path.Ext(uri)) {
	case ".xhtml", ".html", ".htm", ".xml", ".css", ".ncx", ".opf":
		return true
	}
	return false
}
