// SessionCreated is returned after a video upload has been queued.
package dto

type SessionCreated struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	VideoPath string `json:"videoPath"`
	StatusURL string `json:"statusUrl"`
}
