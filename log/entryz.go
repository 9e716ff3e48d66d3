package log

import (
	"fmt"
	"sync"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 16

// EntryZ is a log entry built field by field. A nil *EntryZ is valid and
// discards everything, which is what a disabled module returns, so call
// chains cost nothing when the level is off.
type EntryZ struct {
	lvl   Level
	msg   string
	mod   Module
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

// Context adds fields to every entry logged while it's registered.
type Context interface {
	AddLogContext(z *EntryZ)
}

var contexts []Context

func AddContext(c Context) {
	contexts = append(contexts, c)
}

func RemoveContext(c Context) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

func (z *EntryZ) add(f ZField) *EntryZ {
	if z == nil {
		return nil
	}
	if z.zfidx < len(z.zfbuf) {
		z.zfbuf[z.zfidx] = f
		z.zfidx++
	}
	return z
}

func (z *EntryZ) String(key, val string) *EntryZ {
	return z.add(ZField{Type: FieldTypeString, Key: key, String: val})
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	return z.add(ZField{Type: FieldTypeBool, Key: key, Boolean: val})
}

func (z *EntryZ) Hex8(key string, val uint8) *EntryZ {
	return z.add(ZField{Type: FieldTypeHex8, Key: key, Integer: uint64(val)})
}

func (z *EntryZ) Hex16(key string, val uint16) *EntryZ {
	return z.add(ZField{Type: FieldTypeHex16, Key: key, Integer: uint64(val)})
}

func (z *EntryZ) Hex32(key string, val uint32) *EntryZ {
	return z.add(ZField{Type: FieldTypeHex32, Key: key, Integer: uint64(val)})
}

func (z *EntryZ) Hex64(key string, val uint64) *EntryZ {
	return z.add(ZField{Type: FieldTypeHex64, Key: key, Integer: val})
}

func (z *EntryZ) Int(key string, val int) *EntryZ {
	return z.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(val)})
}

func (z *EntryZ) Uint(key string, val uint) *EntryZ {
	return z.add(ZField{Type: FieldTypeUint, Key: key, Integer: uint64(val)})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	return z.add(ZField{Type: FieldTypeError, Key: key, Error: err})
}

func (z *EntryZ) Stringer(key string, val fmt.Stringer) *EntryZ {
	return z.add(ZField{Type: FieldTypeStringer, Key: key, Interface: val})
}

func (z *EntryZ) Blob(key string, val []byte) *EntryZ {
	return z.add(ZField{Type: FieldTypeBlob, Key: key, Blob: val})
}

// End emits the entry and recycles it. The entry must not be used afterwards.
func (z *EntryZ) End() {
	if z == nil {
		return
	}
	for _, c := range contexts {
		c.AddLogContext(z)
	}

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	entry := logrus.StandardLogger().WithFields(fields)
	lvl, msg := z.lvl, z.msg

	*z = EntryZ{}
	entryPool.Put(z)

	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case PanicLevel:
		entry.Panic(msg)
	}
}
