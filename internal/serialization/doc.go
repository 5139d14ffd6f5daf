// Package serialization saves and loads model parameters as SafeTensors
// checkpoints.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes, tensors in name order]
//
// Every tensor is a float32 ("F32") matrix with shape [rows, cols]. The
// optional "__metadata__" entry carries string key/value pairs; the writer
// adds a SHA-256 of the data section under MetadataChecksum and the reader
// verifies it when present.
//
// Example usage:
//
//	// Save a model
//	if err := serialization.WriteSafeTensors("model.safetensors", model.StateDict(), nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load a model
//	stateDict, _, err := serialization.ReadSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := model.LoadStateDict(stateDict); err != nil {
//	    log.Fatal(err)
//	}
package serialization
