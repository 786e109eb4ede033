package meta

import (
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/garagon/cppdeps/internal/types"
)

// StandardHeaders marks includes of headers shipped with the C/C++ standard
// library or the operating system SDK (POSIX, Windows) as standard.
type StandardHeaders struct{}

func (StandardHeaders) Name() string { return "standard-headers" }

func (StandardHeaders) Enrich(d *types.Detection) {
	if d.SourceKind != types.KindInclude || d.IncludeStyle == types.IncludeQuoted {
		return
	}
	d.Standard = IsStandardHeader(d.Name)
}

// IsStandardHeader reports whether header (as written between the include
// delimiters) names a standard library or platform header.
func IsStandardHeader(header string) bool {
	if standardHeaders[header] {
		return true
	}
	for _, prefix := range platformPrefixes {
		if strings.HasPrefix(header, prefix) {
			return true
		}
	}
	return false
}

// VendorPaths marks detections found under vendored directories such as
// third_party/ or vendor/.
type VendorPaths struct{}

func (VendorPaths) Name() string { return "vendor-paths" }

func (VendorPaths) Enrich(d *types.Detection) {
	d.Vendored = enry.IsVendor(d.FilePath)
}

var platformPrefixes = []string{"sys/", "arpa/", "netinet/", "net/", "linux/", "asm/", "bits/", "mach/"}

var standardHeaders = toSet(
	// C
	"assert.h", "complex.h", "ctype.h", "errno.h", "fenv.h", "float.h",
	"inttypes.h", "iso646.h", "limits.h", "locale.h", "math.h", "setjmp.h",
	"signal.h", "stdalign.h", "stdarg.h", "stdatomic.h", "stdbit.h",
	"stdbool.h", "stdckdint.h", "stddef.h", "stdint.h", "stdio.h",
	"stdlib.h", "stdnoreturn.h", "string.h", "tgmath.h", "threads.h",
	"time.h", "uchar.h", "wchar.h", "wctype.h",
	// C++
	"algorithm", "any", "array", "atomic", "barrier", "bit", "bitset",
	"cassert", "ccomplex", "cctype", "cerrno", "cfenv", "cfloat", "charconv",
	"chrono", "cinttypes", "ciso646", "climits", "clocale", "cmath",
	"codecvt", "compare", "complex", "concepts", "condition_variable",
	"coroutine", "csetjmp", "csignal", "cstdalign", "cstdarg", "cstdbool",
	"cstddef", "cstdint", "cstdio", "cstdlib", "cstring", "ctgmath", "ctime",
	"cuchar", "cwchar", "cwctype", "deque", "exception", "execution",
	"expected", "filesystem", "flat_map", "flat_set", "format",
	"forward_list", "fstream", "functional", "future", "generator",
	"initializer_list", "iomanip", "ios", "iosfwd", "iostream", "istream",
	"iterator", "latch", "limits", "list", "locale", "map", "mdspan",
	"memory", "memory_resource", "mutex", "new", "numbers", "numeric",
	"optional", "ostream", "print", "queue", "random", "ranges", "ratio",
	"regex", "scoped_allocator", "semaphore", "set", "shared_mutex",
	"source_location", "span", "spanstream", "sstream", "stack",
	"stacktrace", "stdexcept", "stdfloat", "stop_token", "streambuf",
	"string", "string_view", "strstream", "syncstream", "system_error",
	"thread", "tuple", "type_traits", "typeindex", "typeinfo",
	"unordered_map", "unordered_set", "utility", "valarray", "variant",
	"vector", "version",
	// POSIX
	"aio.h", "dirent.h", "dlfcn.h", "fcntl.h", "fnmatch.h", "glob.h",
	"grp.h", "iconv.h", "langinfo.h", "libgen.h", "netdb.h", "poll.h",
	"pthread.h", "pwd.h", "regex.h", "sched.h", "search.h", "semaphore.h",
	"spawn.h", "strings.h", "syslog.h", "termios.h", "ulimit.h", "unistd.h",
	"utime.h", "wordexp.h", "malloc.h", "alloca.h", "endian.h", "execinfo.h",
	// Windows SDK
	"windows.h", "winsock2.h", "ws2tcpip.h", "io.h", "direct.h",
	"process.h", "tchar.h", "intrin.h", "shlobj.h", "shellapi.h",
	"objbase.h", "winternl.h", "psapi.h", "dbghelp.h",
)

func toSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
