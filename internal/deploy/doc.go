// SPDX-License-Identifier: MPL-2.0

// Package deploy materializes the enabled mods into the game directory and
// reverts them. The winning file for each destination is computed by
// overlaying the per-mod plans in load order (later mods win), then placed
// by hardlink, symlink or copy, whichever the target filesystem supports.
//
// Every placed file and every directory created along the way is written to
// a deployment record in the store root, so undeploy removes exactly what
// deploy added and nothing else. Files already present in the game
// directory that the record does not account for are never overwritten;
// they surface as per-file conflicts while the rest of the deployment
// proceeds. Deploy and undeploy runs take the store-wide lock.
package deploy
