package ui

// iconBytes is a 16x16 PNG used as the tray icon.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x58, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0xa5, 0xd3, 0xbb, 0x0d, 0x00,
	0x20, 0x0c, 0x43, 0x41, 0xc6, 0xa1, 0xa0, 0x64, 0x2c, 0x46, 0x67, 0x07,
	0x50, 0x0a, 0x90, 0xf8, 0x24, 0xc4, 0x26, 0xd2, 0x2b, 0xd2, 0x5c, 0xe7,
	0x50, 0x4b, 0x6e, 0x52, 0x60, 0x6f, 0x00, 0x52, 0x4c, 0x58, 0xdf, 0xc8,
	0x04, 0xe4, 0x61, 0x90, 0x05, 0x60, 0x90, 0x03, 0x40, 0x91, 0x2b, 0x80,
	0x20, 0x2a, 0xe0, 0x45, 0x4c, 0xc0, 0x83, 0x3c, 0x81, 0x17, 0xe2, 0x02,
	0x2c, 0xc4, 0x0d, 0x68, 0x08, 0x04, 0xdc, 0x10, 0x18, 0xd8, 0x11, 0x0a,
	0x50, 0x11, 0x76, 0xc5, 0x1d, 0xfd, 0x23, 0x63, 0x4e, 0xb7, 0x1f, 0xb0,
	0x6e, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60,
	0x82,
}
