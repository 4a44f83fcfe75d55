package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rushteam/revkit/core"
)

// SaveToStore 把 bundle 写进 KV store 的一个 hash：每条记录一个 field，
// manifest 占 "manifest.json" field。写之前先 HDel 清场，避免旧 bundle
// 的多余 field 残留；读取方以 manifest 为准，整体校验。
func (b *Bundle) SaveToStore(ctx context.Context, kv core.KeyValueStore, key string) error {
	records, err := b.encode()
	if err != nil {
		return err
	}
	m := manifest{
		Version:   BundleVersion,
		Checksums: make(map[string]string, len(records)),
	}
	for name, data := range records {
		m.Checksums[name] = checksum(data)
	}
	manifestData, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := kv.HDel(ctx, key); err != nil && !core.IsStoreNotFound(err) {
		return fmt.Errorf("clear bundle hash %s: %w", key, err)
	}
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := kv.HSet(ctx, key, name, records[name]); err != nil {
			return fmt.Errorf("write record %s: %w", name, err)
		}
	}
	// manifest 最后写：读取方看见 manifest 时全部记录已就位
	if err := kv.HSet(ctx, key, manifestFile, manifestData); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadFromStore 从 KV store 的 hash 读回 bundle，校验语义与 Load 一致。
func LoadFromStore(ctx context.Context, kv core.KeyValueStore, key string) (*Bundle, error) {
	fields, err := kv.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read bundle hash %s: %w", key, core.ErrArtifactLoad)
	}
	manifestData, ok := fields[manifestFile]
	if !ok {
		return nil, fmt.Errorf("missing manifest in hash %s: %w", key, core.ErrArtifactLoad)
	}
	var m manifest
	if err := json.Unmarshal(manifestData, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", core.ErrArtifactLoad)
	}
	if m.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d: %w", m.Version, core.ErrArtifactLoad)
	}
	records := make(map[string][]byte, len(m.Checksums))
	for name, want := range m.Checksums {
		data, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("missing record %s: %w", name, core.ErrArtifactLoad)
		}
		if checksum(data) != want {
			return nil, fmt.Errorf("checksum mismatch on record %s: %w", name, core.ErrArtifactLoad)
		}
		records[name] = data
	}
	return decode(records)
}
