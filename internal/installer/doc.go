// SPDX-License-Identifier: MPL-2.0

// Package installer evaluates the embedded installer descriptor some mods
// ship (fomod/ModuleConfig.xml): a manifest declaring steps of option
// groups whose selections decide which files the mod contributes.
//
// Evaluation is two-phase. Questions resolves the step/option graph against
// the answers already known and returns the questions still pending;
// Plan flattens the selected options into a concrete file-selection plan
// once every required group has an answer. Both phases are pure over the
// descriptor and the answer state: re-invoking Plan with different answers
// always recomputes fully and never mutates the extracted tree.
//
// The descriptor's loosely-typed condition tree is modeled as a closed set
// of tagged variants (And, Or, Selected); unrecognized tags are rejected as
// malformed rather than guessed at.
package installer
