package jumio

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
)

type executionDetails struct {
	Credentials []struct {
		Category string `json:"category"`
		Parts    []struct {
			Classifier string `json:"classifier"`
			Href       string `json:"href"`
		} `json:"parts"`
	} `json:"credentials"`
}

// DownloadDocuments stores every credential part image of the execution. Nothing
// is fetched when document storage is disabled.
func (d *Driver) DownloadDocuments(ctx context.Context, owner models.OwnerRef, reference string) ([]driver.DocumentHandle, error) {
	if !driver.StorageEnabled(d.storage) {
		return nil, nil
	}
	var details executionDetails
	if err := d.do(ctx, http.MethodGet, "/api/v1/workflow-executions/"+reference, nil, &details); err != nil {
		return nil, err
	}
	token, err := d.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var handles []driver.DocumentHandle
	for _, cred := range details.Credentials {
		for _, part := range cred.Parts {
			if part.Href == "" {
				continue
			}
			name := strings.ToLower(cred.Category + "_" + part.Classifier)
			handle, err := d.downloadPart(ctx, token, owner, reference, name, part.Href)
			if err != nil {
				return nil, err
			}
			handles = append(handles, handle)
		}
	}
	return handles, nil
}

func (d *Driver) downloadPart(ctx context.Context, token string, owner models.OwnerRef, reference, name, href string) (driver.DocumentHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return driver.DocumentHandle{}, driver.NewProviderError(driver.ErrorBadData, Name, "invalid part href", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := d.httpClient.Do(req)
	if err != nil {
		return driver.DocumentHandle{}, transportError(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return driver.DocumentHandle{}, driver.NewProviderError(driver.CategoryForStatus(res.StatusCode), Name,
			fmt.Sprintf("download %s: unexpected status %d", name, res.StatusCode), nil)
	}
	contentType := res.Header.Get("Content-Type")
	key := driver.DocumentKey(d.cfg.StoragePath, owner.Type, owner.ID, reference, name)
	size, err := d.storage.Put(ctx, key, contentType, res.Body)
	if err != nil {
		return driver.DocumentHandle{}, fmt.Errorf("store %s: %w", name, err)
	}
	return driver.DocumentHandle{Name: name, Path: key, ContentType: contentType, Size: size}, nil
}
