package shuftipro

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
)

type proofLink struct {
	name string
	url  string
}

// proofLinks lists downloadable proofs, sorted by name. Object entries carry their
// link under "proof"; the video and report entries are plain links.
func proofLinks(proofs map[string]any) []proofLink {
	var links []proofLink
	for name, v := range proofs {
		switch t := v.(type) {
		case map[string]any:
			if u, ok := t["proof"].(string); ok && u != "" {
				links = append(links, proofLink{name: name, url: u})
			}
		case string:
			if (name == "verification_video" || name == "verification_report") && t != "" {
				links = append(links, proofLink{name: name, url: t})
			}
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].name < links[j].name })
	return links
}

// DownloadDocuments fetches every proof of reference and writes it to storage. It
// returns no handles when document storage is disabled.
func (d *Driver) DownloadDocuments(ctx context.Context, owner models.OwnerRef, reference string) ([]driver.DocumentHandle, error) {
	if !driver.StorageEnabled(d.storage) {
		return nil, nil
	}
	resp, err := d.RetrieveVerification(ctx, reference)
	if err != nil {
		return nil, err
	}
	proofs, _ := resp.RawResponse["proofs"].(map[string]any)
	links := proofLinks(proofs)
	if len(links) == 0 {
		return nil, nil
	}
	accessToken := resp.ImageAccessToken

	var (
		mu      sync.Mutex
		handles = make([]driver.DocumentHandle, 0, len(links))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.DownloadConcurrency)
	for _, link := range links {
		g.Go(func() error {
			handle, err := d.download(gctx, owner, reference, link, accessToken)
			if err != nil {
				return err
			}
			mu.Lock()
			handles = append(handles, handle)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Name < handles[j].Name })

	d.logger.InfoContext(ctx, "shuftipro documents downloaded",
		"reference", reference,
		"owner", owner.String(),
		"count", len(handles),
	)
	return handles, nil
}

func (d *Driver) download(ctx context.Context, owner models.OwnerRef, reference string, link proofLink, accessToken string) (driver.DocumentHandle, error) {
	target, err := url.Parse(link.url)
	if err != nil {
		return driver.DocumentHandle{}, driver.NewProviderError(driver.ErrorBadData, Name, "invalid proof url", err)
	}
	if accessToken != "" {
		q := target.Query()
		q.Set("access_token", accessToken)
		target.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return driver.DocumentHandle{}, driver.NewProviderError(driver.ErrorInternal, Name, "build proof request", err)
	}
	req.SetBasicAuth(d.cfg.ClientID, d.cfg.SecretKey)

	res, err := d.httpClient.Do(req)
	if err != nil {
		return driver.DocumentHandle{}, transportError(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return driver.DocumentHandle{}, driver.NewProviderError(driver.CategoryForStatus(res.StatusCode), Name,
			fmt.Sprintf("download %s: unexpected status %d", link.name, res.StatusCode), nil)
	}

	contentType := res.Header.Get("Content-Type")
	name := link.name + extension(contentType, target.Path)
	key := driver.DocumentKey(d.cfg.StoragePath, owner.Type, owner.ID, reference, name)
	size, err := d.storage.Put(ctx, key, contentType, res.Body)
	if err != nil {
		return driver.DocumentHandle{}, fmt.Errorf("store %s: %w", name, err)
	}
	return driver.DocumentHandle{Name: name, Path: key, ContentType: contentType, Size: size}, nil
}

func extension(contentType, urlPath string) string {
	if ext := path.Ext(urlPath); ext != "" {
		return ext
	}
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				return exts[0]
			}
		}
	}
	return ""
}
