package allocation

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveSource fetches the allocation sheet from Google Drive using a
// service-account credential.
type DriveSource struct {
	serviceAccountFile string
	fileID             string
}

// NewDriveSource builds a source from a Drive share URL. The file ID is
// extracted up front so a malformed URL fails at startup rather than
// mid-run.
func NewDriveSource(shareURL, serviceAccountFile string) (*DriveSource, error) {
	fileID, err := ExtractFileID(shareURL)
	if err != nil {
		return nil, err
	}
	return &DriveSource{
		serviceAccountFile: serviceAccountFile,
		fileID:             fileID,
	}, nil
}

// Fetch downloads the file content. The caller must close the returned
// reader.
func (d *DriveSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(d.serviceAccountFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("allocation: building drive service: %w", err)
	}

	resp, err := svc.Files.Get(d.fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("allocation: downloading file %s: %w", d.fileID, err)
	}
	return resp.Body, nil
}

// ExtractFileID pulls the Drive file ID out of a share URL. Both the
// "?id=..." and the "/file/d/<id>/..." formats are accepted.
func ExtractFileID(shareURL string) (string, error) {
	u, err := url.Parse(shareURL)
	if err != nil {
		return "", fmt.Errorf("allocation: parsing drive url: %w", err)
	}

	if id := u.Query().Get("id"); id != "" {
		return id, nil
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "d" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}

	return "", fmt.Errorf("allocation: no file id in url %q", shareURL)
}
