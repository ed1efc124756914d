// Package report renders collected projects as a tabbed HTML status page
// or as a plain text listing.
//
// The HTML page is built from Pages of Columns. Each column knows how to
// render its <col>, <th> and <td> elements and contributes CSS rules and
// tablesorter configuration for the page it is placed on.
package report
