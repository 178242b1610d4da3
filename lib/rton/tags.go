// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rton

// Tag is the leading type byte of an encoded value.
type Tag byte

const (
	TagFalse Tag = 0x00
	TagTrue  Tag = 0x01

	TagInt8       Tag = 0x08
	TagInt8Zero   Tag = 0x09
	TagUint8      Tag = 0x0a
	TagUint8Zero  Tag = 0x0b
	TagInt16      Tag = 0x10
	TagInt16Zero  Tag = 0x11
	TagUint16     Tag = 0x12
	TagUint16Zero Tag = 0x13

	TagInt32         Tag = 0x20
	TagInt32Zero     Tag = 0x21
	TagFloat32       Tag = 0x22
	TagFloat32Zero   Tag = 0x23
	TagInt32Uvarint  Tag = 0x24
	TagInt32Varint   Tag = 0x25
	TagUint32        Tag = 0x26
	TagUint32Zero    Tag = 0x27
	TagUint32Uvarint Tag = 0x28
	TagUint32Varint  Tag = 0x29

	TagInt64         Tag = 0x40
	TagInt64Zero     Tag = 0x41
	TagFloat64       Tag = 0x42
	TagFloat64Zero   Tag = 0x43
	TagInt64Uvarint  Tag = 0x44
	TagInt64Varint   Tag = 0x45
	TagUint64        Tag = 0x46
	TagUint64Zero    Tag = 0x47
	TagUint64Uvarint Tag = 0x48
	TagUint64Varint  Tag = 0x49

	TagString          Tag = 0x81
	TagPrintable       Tag = 0x82
	TagReference       Tag = 0x83
	TagNull            Tag = 0x84
	TagObject          Tag = 0x85
	TagArray           Tag = 0x86
	TagCachedString    Tag = 0x90
	TagCacheRef        Tag = 0x91
	TagCachedPrintable Tag = 0x92
	TagPrintableRef    Tag = 0x93

	TagArrayStart Tag = 0xfd
	TagArrayEnd   Tag = 0xfe
	TagObjectEnd  Tag = 0xff
)

// Reference subtypes, the byte after TagReference.
const (
	refSubtypeEmpty   byte = 0x00
	refSubtypeNumeric byte = 0x02
	refSubtypeNamed   byte = 0x03
)

// Magic opens every RTON document and Trailer closes encoded ones.
const (
	Magic   = "RTON"
	Trailer = "DONE"
)

// Version is the document version the encoder writes.
const Version uint32 = 1
