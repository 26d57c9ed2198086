package requirements

// Appointment types known to the parish office, plus two pseudo types for
// uploads that hang off the user and donation rows.
const (
	TypeWedding  = "Wedding"
	TypeBaptism  = "Baptism"
	TypeKumpil   = "Kumpil"
	TypeFuneral  = "Funeral"
	TypeProfile  = "Profile"
	TypeDonation = "Donation"

	LabelProfileImage = "Profile Image"
	LabelReceipt      = "Receipt"
)

var defaultEntries = []Entry{
	{Type: TypeKumpil, Label: "Baptismal Certificate", Bucket: "kumpil", Table: "kumpilforms", Column: "student_baptismal_certificate", KeyColumn: "kumpil_form_id", Accept: ImagesAndDocuments},
	{Type: TypeKumpil, Label: "Birth Certificate", Bucket: "kumpil", Table: "kumpilforms", Column: "student_birth_certificate", KeyColumn: "kumpil_form_id", Accept: ImagesAndDocuments},
	{Type: TypeKumpil, Label: "Seminar Certificate", Bucket: "kumpil", Table: "kumpilforms", Column: "seminar_certificate", KeyColumn: "kumpil_form_id", Accept: ImagesAndDocuments, Optional: true},

	{Type: TypeWedding, Label: "Groom Baptismal Certificate", Bucket: "wedding", Table: "weddingforms", Column: "groom_baptismal_certificate", KeyColumn: "wedding_form_id", Accept: ImagesAndDocuments},
	{Type: TypeWedding, Label: "Bride Baptismal Certificate", Bucket: "wedding", Table: "weddingforms", Column: "bride_baptismal_certificate", KeyColumn: "wedding_form_id", Accept: ImagesAndDocuments},
	{Type: TypeWedding, Label: "Groom Confirmation Certificate", Bucket: "wedding", Table: "weddingforms", Column: "groom_confirmation_certificate", KeyColumn: "wedding_form_id", Accept: ImagesAndDocuments},
	{Type: TypeWedding, Label: "Bride Confirmation Certificate", Bucket: "wedding", Table: "weddingforms", Column: "bride_confirmation_certificate", KeyColumn: "wedding_form_id", Accept: ImagesAndDocuments},
	{Type: TypeWedding, Label: "Marriage License", Bucket: "wedding", Table: "weddingforms", Column: "marriage_license", KeyColumn: "wedding_form_id", Accept: ImagesAndDocuments},
	{Type: TypeWedding, Label: "Pre-Cana Seminar Certificate", Bucket: "wedding", Table: "weddingforms", Column: "precana_certificate", KeyColumn: "wedding_form_id", Accept: ImagesAndDocuments, Optional: true},

	{Type: TypeBaptism, Label: "Child Birth Certificate", Bucket: "baptism", Table: "baptismforms", Column: "child_birth_certificate", KeyColumn: "baptism_form_id", Accept: ImagesAndDocuments},
	{Type: TypeBaptism, Label: "Parents Marriage Certificate", Bucket: "baptism", Table: "baptismforms", Column: "parents_marriage_certificate", KeyColumn: "baptism_form_id", Accept: ImagesAndDocuments, Optional: true},

	{Type: TypeFuneral, Label: "Death Certificate", Bucket: "funeral", Table: "funeralforms", Column: "death_certificate", KeyColumn: "funeral_form_id", Accept: ImagesAndDocuments},

	{Type: TypeProfile, Label: LabelProfileImage, Bucket: "profile-images", Table: "users", Column: "profile_image", KeyColumn: "user_id", Accept: ImagesOnly},
	{Type: TypeDonation, Label: LabelReceipt, Bucket: "donation-receipts", Table: "donations", Column: "receipt_url", KeyColumn: "donation_id", Accept: ImagesAndDocuments},
}

// Default returns the parish requirement table.
func Default() *Registry {
	r, err := New(defaultEntries...)
	if err != nil {
		panic(err)
	}
	return r.Alias("Confirmation", TypeKumpil)
}
