// Package scaffold stages role scaffold files from embedded templates and
// merges configuration sections into role config files.
package scaffold

// ProjectConfigTemplate is written as cloudrole.yaml by project creation.
// Settings here override the user config for this project only.
const ProjectConfigTemplate = `# cloudrole project settings
# roles:
#   default_instances: 1
#   default_vm_size: Small
`
