// Package wizard provides the interactive configuration wizard behind
// `k3stage init`.
//
// RunWizard collects answers with charmbracelet/huh forms into a
// WizardResult. BuildConfig turns the answers into a config.Config and
// WriteConfig renders it as a YAML inventory that config.Load accepts.
package wizard
