// Package config loads the settings of the cfgctl command.
//
// # Loading Order
//
// Load starts from Defaults and merges, in increasing priority:
//
//  1. Global settings (~/.config/offsetconfig/cfgctl.json and cfgctl.jsonc)
//  2. Project settings (cfgctl.json and cfgctl.jsonc in the working directory)
//  3. The file named by OFFSETCONFIG_SETTINGS
//  4. OFFSETCONFIG_DIR, OFFSETCONFIG_LOG_LEVEL, OFFSETCONFIG_INDENT,
//     OFFSETCONFIG_SCAN_PATTERN and OFFSETCONFIG_KEEP_BACKUPS
//
// Missing files are skipped. Files that exist but cannot be parsed are
// logged and skipped.
//
// # Format
//
// Settings files are JSONC: comments and trailing commas are stripped with
// tidwall/jsonc before decoding.
//
//	{
//	  // where bare ids are looked up
//	  "dir": "run/config",
//	  "keepBackups": 3,
//	}
//
// # Variable Interpolation
//
//   - {env:VAR_NAME} expands to the environment variable
//   - {file:path} expands to the file contents, escaped for a JSON string;
//     relative paths resolve against the settings file's directory and ~/
//     against $HOME
//
// # Paths
//
// GetPaths follows the XDG base directory layout with AppName as the
// directory name, falling back to %APPDATA% on Windows.
package config
