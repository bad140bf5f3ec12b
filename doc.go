// Package heifgainmap reconstructs HDR images from an SDR Display P3 base image
// and an auxiliary gain map, as stored in photos taken by recent iPhones.
//
// The base image is linearized with the sRGB EOTF, boosted with the gain map
// (out = base * 8^gain), converted to the target primaries and encoded as
// linear OpenEXR (scRGB or ACES 2065-1), BT.2020 PQ PNG-48, or limited range
// 4:4:4 Y'Cb'Cr' YUV4MPEG2. A single Engine serves every output through an
// OutputProfile.
package heifgainmap
