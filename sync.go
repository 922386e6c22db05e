package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	metaLastSyncHash = "last_sync_hash"
	metaLastSyncAt   = "last_sync_at"
)

// runSyncLoop keeps app_details eventually consistent with the remote
// source. It runs until ctx is cancelled; a failed cycle is logged
// and retried on the next tick, never fatal.
func (a *App) runSyncLoop(ctx context.Context) {
	for {
		a.syncCycle(ctx)
		select {
		case <-ctx.Done():
			InfoLog.Println("sync loop stopped")
			return
		case <-time.After(a.cfg.SyncInterval):
		}
	}
}

// syncCycle isolates one cycle. A panic inside the cycle must not
// kill the loop.
func (a *App) syncCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			ErrorLog.Printf("sync cycle panic: %v", r)
		}
	}()

	changed, err := a.syncOnce(ctx)
	if err != nil {
		ErrorLog.Printf("sync cycle: %v", err)
		return
	}
	if changed {
		InfoLog.Println("app details refreshed from source")
	}
}

// syncOnce pulls the full app table and upserts it. The raw payload
// is fingerprinted with BLAKE3; an identical batch skips the upsert
// pass entirely (the newer-wins rule would make it a no-op anyway).
func (a *App) syncOnce(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.SourceURL, nil)
	if err != nil {
		return false, fmt.Errorf("build source request: %w", err)
	}
	req.Header.Set("X-API-Key", a.cfg.SourceKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("source returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read source body: %w", err)
	}

	fingerprint := hashBLAKE3(body)
	last, err := a.store.MetaGet(metaLastSyncHash)
	if err == nil && last != "" && last == fingerprint {
		a.store.MetaSet(metaLastSyncAt, fmt.Sprint(a.now().Unix()))
		return false, nil
	}

	var details []AppDetail
	if err := json.Unmarshal(body, &details); err != nil {
		return false, fmt.Errorf("parse source payload: %w", err)
	}

	for _, d := range details {
		if d.Name == "" {
			continue
		}
		if err := a.store.UpsertAppDetail(d); err != nil {
			return false, fmt.Errorf("upsert %s: %w", d.Name, err)
		}
	}

	a.store.MetaSet(metaLastSyncHash, fingerprint)
	a.store.MetaSet(metaLastSyncAt, fmt.Sprint(a.now().Unix()))
	return true, nil
}
