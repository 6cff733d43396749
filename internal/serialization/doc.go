// Package serialization stores stickified tensors in the .stk container.
//
// A .stk file keeps both descriptors of every tensor next to its buffer, so
// a reader can rebuild the tensor without transforming it again:
//
//	Format Structure:
//	  [4 bytes: Magic "STIK"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Padding to a 4096-byte boundary]
//	  [Data section: page-aligned tensor buffers, optionally zstd-compressed]
//
// The SHA-256 checksum stored in the header covers the uncompressed data
// section. Offsets in the header are relative to the uncompressed data
// section and are always page aligned, so a restored buffer keeps the
// alignment the engine expects.
//
// Example usage:
//
//	// Save
//	w := serialization.NewWriter(serialization.WriterOptions{Compress: true})
//	if err := w.Add("weights", zt); err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Save("model.stk"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load
//	r, err := serialization.Open("model.stk", cfg, serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	zt, err := r.LoadTensor("weights")
package serialization
