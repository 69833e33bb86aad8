package judge

import (
	"fmt"

	"codearena/internal/common"
)

// CompileConfig and RunConfig are serialized verbatim into the judge server
// request as the language_config field.
type CompileConfig struct {
	SrcName        string   `json:"src_name"`
	ExeName        string   `json:"exe_name"`
	MaxCPUTime     int      `json:"max_cpu_time"`
	MaxRealTime    int      `json:"max_real_time"`
	MaxMemory      int      `json:"max_memory"`
	CompileCommand string   `json:"compile_command"`
	Env            []string `json:"env,omitempty"`
}

type RunConfig struct {
	Command              string   `json:"command"`
	SeccompRule          *string  `json:"seccomp_rule"`
	Env                  []string `json:"env"`
	MemoryLimitCheckOnly int      `json:"memory_limit_check_only,omitempty"`
}

type LanguageConfig struct {
	Compile CompileConfig `json:"compile"`
	Run     RunConfig     `json:"run"`
}

// SPJCompileConfig and SPJConfig describe how a special judge binary is
// compiled and invoked. Only C and C++ checkers are supported.
type SPJCompileConfig struct {
	SrcName        string `json:"src_name"`
	ExeName        string `json:"exe_name"`
	MaxCPUTime     int    `json:"max_cpu_time"`
	MaxRealTime    int    `json:"max_real_time"`
	MaxMemory      int    `json:"max_memory"`
	CompileCommand string `json:"compile_command"`
}

type SPJConfig struct {
	ExeName     string  `json:"exe_name"`
	Command     string  `json:"command"`
	SeccompRule *string `json:"seccomp_rule"`
}

func strPtr(s string) *string { return &s }

var defaultEnv = []string{"LANG=en_US.UTF-8", "LANGUAGE=en_US:en", "LC_ALL=en_US.UTF-8"}

// Static, read-only after process start. The map itself is never mutated.
var languageConfigs = map[string]LanguageConfig{
	"C": {
		Compile: CompileConfig{
			SrcName:        "main.c",
			ExeName:        "main",
			MaxCPUTime:     3000,
			MaxRealTime:    5000,
			MaxMemory:      128 * 1024 * 1024,
			CompileCommand: "/usr/bin/gcc -DONLINE_JUDGE -O2 -w -fmax-errors=3 -std=c99 {src_path} -lm -o {exe_path}",
		},
		Run: RunConfig{
			Command:     "{exe_path}",
			SeccompRule: strPtr("c_cpp"),
			Env:         defaultEnv,
		},
	},
	"C++": {
		Compile: CompileConfig{
			SrcName:        "main.cpp",
			ExeName:        "main",
			MaxCPUTime:     3000,
			MaxRealTime:    5000,
			MaxMemory:      128 * 1024 * 1024,
			CompileCommand: "/usr/bin/g++ -DONLINE_JUDGE -O2 -w -fmax-errors=3 -std=c++11 {src_path} -lm -o {exe_path}",
		},
		Run: RunConfig{
			Command:     "{exe_path}",
			SeccompRule: strPtr("c_cpp"),
			Env:         defaultEnv,
		},
	},
	"Java": {
		Compile: CompileConfig{
			SrcName:        "Main.java",
			ExeName:        "Main",
			MaxCPUTime:     3000,
			MaxRealTime:    5000,
			MaxMemory:      -1,
			CompileCommand: "/usr/bin/javac {src_path} -d {exe_dir} -encoding UTF8",
		},
		Run: RunConfig{
			Command:              "/usr/bin/java -cp {exe_dir} -XX:MaxRAM={max_memory}k -Djava.security.manager -Dfile.encoding=UTF-8 -Djava.security.policy==/etc/java_policy -Djava.awt.headless=true Main",
			SeccompRule:          nil,
			Env:                  defaultEnv,
			MemoryLimitCheckOnly: 1,
		},
	},
	"Python2": {
		Compile: CompileConfig{
			SrcName:        "solution.py",
			ExeName:        "solution.pyc",
			MaxCPUTime:     3000,
			MaxRealTime:    5000,
			MaxMemory:      128 * 1024 * 1024,
			CompileCommand: "/usr/bin/python -m py_compile {src_path}",
		},
		Run: RunConfig{
			Command:     "/usr/bin/python {exe_path}",
			SeccompRule: strPtr("general"),
			Env:         defaultEnv,
		},
	},
	"Python3": {
		Compile: CompileConfig{
			SrcName:        "solution.py",
			ExeName:        "__pycache__/solution.cpython-36.pyc",
			MaxCPUTime:     3000,
			MaxRealTime:    5000,
			MaxMemory:      128 * 1024 * 1024,
			CompileCommand: "/usr/bin/python3 -m py_compile {src_path}",
		},
		Run: RunConfig{
			Command:     "/usr/bin/python3 {exe_path}",
			SeccompRule: strPtr("general"),
			Env:         append([]string{"PYTHONIOENCODING=UTF-8"}, defaultEnv...),
		},
	},
	"Go": {
		Compile: CompileConfig{
			SrcName:        "main.go",
			ExeName:        "main",
			MaxCPUTime:     3000,
			MaxRealTime:    5000,
			MaxMemory:      1024 * 1024 * 1024,
			CompileCommand: "/usr/bin/go build -o {exe_path} {src_path}",
			Env:            []string{"GOCACHE=/tmp", "GOPATH=/tmp/go"},
		},
		Run: RunConfig{
			Command:     "{exe_path}",
			SeccompRule: strPtr("general"),
			Env:         defaultEnv,
		},
	},
}

var spjCompileConfigs = map[string]SPJCompileConfig{
	"C": {
		SrcName:        "spj-{spj_version}.c",
		ExeName:        "spj-{spj_version}",
		MaxCPUTime:     3000,
		MaxRealTime:    5000,
		MaxMemory:      1024 * 1024 * 1024,
		CompileCommand: "/usr/bin/gcc -DONLINE_JUDGE -O2 -w -fmax-errors=3 -std=c99 {src_path} -lm -o {exe_path}",
	},
	"C++": {
		SrcName:        "spj-{spj_version}.cpp",
		ExeName:        "spj-{spj_version}",
		MaxCPUTime:     3000,
		MaxRealTime:    5000,
		MaxMemory:      1024 * 1024 * 1024,
		CompileCommand: "/usr/bin/g++ -DONLINE_JUDGE -O2 -w -fmax-errors=3 -std=c++11 {src_path} -lm -o {exe_path}",
	},
}

var spjRunConfigs = map[string]SPJConfig{
	"C": {
		ExeName:     "spj-{spj_version}",
		Command:     "{exe_path} {in_file_path} {user_out_file_path}",
		SeccompRule: strPtr("c_cpp"),
	},
	"C++": {
		ExeName:     "spj-{spj_version}",
		Command:     "{exe_path} {in_file_path} {user_out_file_path}",
		SeccompRule: strPtr("c_cpp"),
	},
}

// LanguageConfigFor looks up the judging profile for a language identifier.
// An unknown identifier is a caller error, never coerced into a verdict.
func LanguageConfigFor(language string) (LanguageConfig, error) {
	cfg, ok := languageConfigs[language]
	if !ok {
		return LanguageConfig{}, fmt.Errorf("unknown language %q: %w", language, common.ErrConfiguration)
	}
	return cfg, nil
}

// SPJConfigsFor returns the compile and run profiles for a special judge
// written in the given language.
func SPJConfigsFor(language string) (SPJCompileConfig, SPJConfig, error) {
	compile, ok := spjCompileConfigs[language]
	if !ok {
		return SPJCompileConfig{}, SPJConfig{}, fmt.Errorf("unsupported spj language %q: %w", language, common.ErrConfiguration)
	}
	return compile, spjRunConfigs[language], nil
}

// UsesStandardLimits reports whether submissions in the language are judged
// against the problem's standard (native C/C++) resource ceilings. Every
// other language gets the roomier "other" limits; interpreted and managed
// runtimes need more headroom for equivalent work.
func UsesStandardLimits(language string) bool {
	return language == "C" || language == "C++"
}

// Languages lists the registered language identifiers.
func Languages() []string {
	names := make([]string, 0, len(languageConfigs))
	for name := range languageConfigs {
		names = append(names, name)
	}
	return names
}
