package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type lineFormat uint8

const (
	formatJSON lineFormat = iota
	formatKV
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type handlerOptions struct {
	level  slog.Leveler
	out    *lineWriter
	format lineFormat
	order  []string
}

// lineHandler renders every record as one kv or JSON line. Keys listed in
// the configured order come first, the rest follow alphabetically.
type lineHandler struct {
	opts   handlerOptions
	rank   map[string]int
	preset []field
	prefix string
}

type field struct {
	key string
	val any
}

func newLineHandler(opts handlerOptions) *lineHandler {
	if opts.level == nil {
		opts.level = slog.LevelInfo
	}
	if opts.order == nil {
		opts.order = append([]string(nil), defaultKeyOrder...)
	}
	rank := make(map[string]int, len(opts.order))
	for i, k := range opts.order {
		if _, dup := rank[k]; !dup {
			rank[k] = i
		}
	}
	return &lineHandler{opts: opts, rank: rank}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	fs := newFieldSet(len(h.preset) + len(attrs))
	for _, f := range h.preset {
		fs.set(f.key, f.val)
	}
	for _, a := range attrs {
		addAttr(fs, h.prefix, a)
	}
	clone.preset = fs.list
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func (h *lineHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.opts.out == nil {
		return errors.New("logger: output not initialized")
	}
	asJSON := h.opts.format == formatJSON

	fs := newFieldSet(len(h.preset) + r.NumAttrs() + 8)
	ts := r.Time.UTC()
	fs.set("ts", ts.Truncate(time.Millisecond).Format(tsLayout))
	fs.set("level", normalizeLevel(r.Level.String()))
	if asJSON {
		fs.set("ts_unix_nano", ts.UnixNano())
	}
	for _, f := range h.preset {
		fs.set(f.key, f.val)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fs, h.prefix, a)
		return true
	})
	if ctx != nil {
		fs.setDefault("rid", RIDFrom(ctx))
		fs.setDefault("user_id", UserIDFrom(ctx))
		fs.setDefault("update_id", UpdateIDFrom(ctx))
		fs.setDefault("chat_id", ChatIDFrom(ctx))
		fs.setDefault("handler", HandlerFrom(ctx))
	}

	if rid := fs.str("rid"); rid != "" {
		if short := CompactRID(rid); short != "" && short != rid {
			if asJSON {
				fs.setDefault("rid_full", rid)
			}
			fs.set("rid", short)
		}
	}
	if fs.str("event") == "" {
		event := r.Message
		if event == "" {
			event = "unknown"
		}
		fs.set("event", event)
	}
	if fs.str("component") == "" {
		fs.set("component", "app")
	}
	normalizeEnums(fs)

	var buf bytes.Buffer
	if asJSON {
		if err := writeJSON(&buf, h.sorted(fs)); err != nil {
			return err
		}
	} else {
		writeKV(&buf, h.sorted(fs))
	}
	buf.WriteByte('\n')
	return h.opts.out.Write(buf.Bytes())
}

// sorted drops empty values and orders the rest.
func (h *lineHandler) sorted(fs *fieldSet) []field {
	out := make([]field, 0, len(fs.list))
	for _, f := range fs.list {
		if !isBlank(f.val) {
			out = append(out, f)
		}
	}
	unranked := len(h.rank)
	rankOf := func(k string) int {
		if r, ok := h.rank[k]; ok {
			return r
		}
		return unranked
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rankOf(out[i].key), rankOf(out[j].key)
		if ri != rj {
			return ri < rj
		}
		return out[i].key < out[j].key
	})
	return out
}

// fieldSet keeps insertion order and the last value written per key.
type fieldSet struct {
	idx  map[string]int
	list []field
}

func newFieldSet(capacity int) *fieldSet {
	return &fieldSet{idx: make(map[string]int, capacity), list: make([]field, 0, capacity)}
}

func (s *fieldSet) set(key string, val any) {
	if i, ok := s.idx[key]; ok {
		s.list[i].val = val
		return
	}
	s.idx[key] = len(s.list)
	s.list = append(s.list, field{key: key, val: val})
}

// setDefault writes val unless key is present or val is a zero value.
func (s *fieldSet) setDefault(key string, val any) {
	if _, ok := s.idx[key]; ok || isZero(val) {
		return
	}
	s.set(key, val)
}

func (s *fieldSet) str(key string) string {
	i, ok := s.idx[key]
	if !ok || s.list[i].val == nil {
		return ""
	}
	if v, ok := s.list[i].val.(string); ok {
		return v
	}
	return fmt.Sprint(s.list[i].val)
}

func addAttr(fs *fieldSet, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			addAttr(fs, key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if val, isDur := attrValue(a.Value); isDur {
		fs.set(msKey(key), val)
	} else if val != nil {
		fs.set(key, val)
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// attrValue converts v to a plain value. Durations become whole milliseconds
// and are reported separately so their key can be renamed.
func attrValue(v slog.Value) (any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String()), false
	case slog.KindBool:
		return v.Bool(), false
	case slog.KindInt64:
		return v.Int64(), false
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return int64(u), false
		}
		return v.Uint64(), false
	case slog.KindFloat64:
		return v.Float64(), false
	case slog.KindDuration:
		return RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano), false
	}
	switch x := v.Any().(type) {
	case nil:
		return nil, false
	case error:
		return x.Error(), false
	case time.Duration:
		return RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return x.String(), false
	default:
		return fmt.Sprint(x), false
	}
}

func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return v == nil || ok && s == ""
}

func isZero(v any) bool {
	switch x := v.(type) {
	case int64:
		return x == 0
	case int:
		return x == 0
	}
	return isBlank(v)
}

// normalizeEnums lowercases status and drops outcomes outside the known set.
// Unknown statuses are kept so nothing is lost.
func normalizeEnums(fs *fieldSet) {
	if s := fs.str("status"); s != "" {
		v, _ := normalizeEnum(s, allowedStatus)
		fs.set("status", v)
	}
	if o := fs.str("outcome"); o != "" {
		if v, ok := normalizeEnum(o, allowedOutcome); ok {
			fs.set("outcome", v)
		} else {
			fs.set("outcome", nil)
		}
	}
}

func writeJSON(buf *bytes.Buffer, fields []field) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(f.val)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}

func writeKV(buf *bytes.Buffer, fields []field) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(f.key)
		buf.WriteByte('=')
		var s string
		switch v := f.val.(type) {
		case string:
			s = v
		case bool:
			s = strconv.FormatBool(v)
		case int64:
			s = strconv.FormatInt(v, 10)
		default:
			s = fmt.Sprint(v)
		}
		if strings.ContainsFunc(s, needsQuote) {
			s = strconv.Quote(s)
		}
		buf.WriteString(s)
	}
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
