// Package preflight provides readiness checks for the external tools,
// directories, and remote services the pipeline depends on.
//
// These checks run in two contexts:
//   - "subtitler run" calls RunAll before the first stage. If any check
//     fails, the run stops before spending time on extraction.
//   - "subtitler check" prints every check, including the binary and ffmpeg
//     capability report from CheckSystemDeps.
//
// Engine checks follow the configured engines: the WhisperX toolchain is only
// required when WhisperX transcribes, and an API key is only required by the
// engines that use one.
package preflight
