// Package storage provides YAML-based persistence for imported meetups.
//
// Each import run overwrites meetups.yaml in the data directory with the sorted
// meetups, the forecast horizon used and the import time. The previous file is
// read back to report new and changed meetups and to serve the list and
// calendar commands without calling the API.
// The default storage location is ~/.local/share/meetup-events/.
package storage
