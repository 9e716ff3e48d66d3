package log

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

// Predefine the modules used across bitbang.
const (
	ModHwIo Module = iota + 1
	ModMap
	ModEndian
	ModDevices
	ModCLI
)

var (
	modDebugMask ModuleMask = 0
	disabled     bool
)

var modNames = []string{
	"<error>", "hwio", "map", "endian", "devices", "cli",
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
	if modDebugMask != 0 {
		setStdLevel(DebugLevel)
	}
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

// Disable turns off all logging, including warnings and errors.
func Disable() {
	disabled = true
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	if disabled {
		return false
	}
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

// New-style fast functions

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if mod.Enabled(lvl) {
		e := NewEntryZ()
		e.lvl = lvl
		e.msg = msg
		e.mod = mod
		return e
	}
	return nil
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
