package wacz

import "github.com/waczpack/waczpack/pkg/pages"

// IDGen mints a page ID. Injecting one lets a caller fix page IDs to
// make output byte-for-byte reproducible.
type IDGen func() string

func defaultIDGen() string { return pages.NewID() }
