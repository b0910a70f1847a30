package camera

import "image"

// yuyvToGray keeps the luma samples of a packed YUYV 4:2:2 frame. Decoding
// only needs brightness, so chroma is dropped.
func yuyvToGray(frame []byte, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	n := width * height
	if len(frame)/2 < n {
		n = len(frame) / 2
	}
	for i := 0; i < n; i++ {
		img.Pix[i] = frame[2*i]
	}
	return img
}
