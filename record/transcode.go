package record

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/whispa-ai/whispad/fault"
)

// Clip is a decoded recording ready for upload.
type Clip struct {
	Data      []byte
	Extension string
	Filename  string
	MIMEType  string
}

// DecodeClip parses the recorder's relayed payload. The payload is a data
// URL ("data:audio/<ext>;base64,<content>"); the extension comes from the
// recorder's negotiated container format, never hardcoded here.
func DecodeClip(payload, extension string) (Clip, error) {
	parts := strings.SplitN(payload, ";base64,", 2)
	if len(parts) != 2 {
		return Clip{}, fault.New(fault.MalformedPayload, "audio payload is not a base64 data URL")
	}

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return Clip{}, fault.Wrap(fault.MalformedPayload, "audio payload decode failed", err)
	}
	if len(data) == 0 {
		return Clip{}, fault.New(fault.MalformedPayload, "audio payload is empty")
	}

	if extension == "" {
		extension = "webm"
	}
	return Clip{
		Data:      data,
		Extension: extension,
		Filename:  fmt.Sprintf("recording.%s", extension),
		MIMEType:  fmt.Sprintf("audio/%s", extension),
	}, nil
}
