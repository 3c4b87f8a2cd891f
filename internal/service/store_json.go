package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/pkg/errors"
)

// getJSON 读取并解码 JSON 值，键不存在时返回零值与 ok=false
func getJSON[T any](ctx context.Context, store domain.Store, uid int64, key string) (out T, ok bool, err error) {
	raw, ok, err := store.Get(ctx, uid, key)
	if err != nil || !ok || raw == "" {
		return out, false, err
	}
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return out, false, errors.Wrapf(err, "decode %s", key)
	}
	return out, true, nil
}

// setJSON 编码并写入 JSON 值
func setJSON(ctx context.Context, store domain.Store, uid int64, key string, v any) error {
	raw, err := sonic.MarshalString(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return store.Set(ctx, uid, key, raw)
}

// updateJSON 在存储的读改写序列中解码当前值、调用 fn 并写回结果
func updateJSON[T any](ctx context.Context, store domain.Store, uid int64, key string, fn func(cur T, ok bool) (T, error)) (T, error) {
	var out T
	err := store.Update(ctx, uid, key, func(raw string, ok bool) (string, error) {
		var cur T
		if ok && raw != "" {
			if err := sonic.UnmarshalString(raw, &cur); err != nil {
				return "", errors.Wrapf(err, "decode %s", key)
			}
		} else {
			ok = false
		}
		next, err := fn(cur, ok)
		if err != nil {
			return "", err
		}
		enc, err := sonic.MarshalString(next)
		if err != nil {
			return "", errors.Wrapf(err, "encode %s", key)
		}
		out = next
		return enc, nil
	})
	return out, err
}
