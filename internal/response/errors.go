package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Session engine ────────────────────────────────────────────────
	ErrNotInWindow      ErrCode = "NOT_IN_WINDOW"
	ErrTimeUp           ErrCode = "TIME_UP"
	ErrDeviceConflict   ErrCode = "DEVICE_CONFLICT"
	ErrAlreadyCompleted ErrCode = "ALREADY_COMPLETED"
	ErrSessionCompleted ErrCode = "SESSION_COMPLETED"
	ErrSessionExpired   ErrCode = "SESSION_EXPIRED"
	ErrInvalidSlot      ErrCode = "INVALID_SLOT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Nama pengguna atau kata sandi salah."
	case ErrSessionInvalidated:
		return "Sesi login Anda telah berakhir. Silakan login kembali."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrTeacherAccessOnly:
		return "Sumber daya ini terbatas untuk pengajar."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."

	// ─── Session engine ────────────────────────────────────────────────
	case ErrNotInWindow:
		return "Ujian belum dibuka atau jendela aksesnya sudah ditutup."
	case ErrTimeUp:
		return "Waktu pengerjaan ujian telah habis."
	case ErrDeviceConflict:
		return "Sesi ujian Anda sedang aktif di perangkat lain."
	case ErrAlreadyCompleted:
		return "Ujian sudah diselesaikan. Silakan lihat hasil Anda."
	case ErrSessionCompleted:
		return "Sesi ujian sudah selesai. Jawaban tidak dapat diubah."
	case ErrSessionExpired:
		return "Sesi ujian telah kedaluwarsa."
	case ErrInvalidSlot:
		return "Nomor atau ID soal tidak dikenal untuk ujian ini."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
