// Package group reads the list of meetup groups to import from a YAML file.
//
// The file has a single top-level key:
//
//	groups:
//	  - name: Golang Vienna
//	    meetup_com_id: 18492376
//	    country: Austria
//
// Groups without a meetup_com_id are listed for reference but never imported.
package group
