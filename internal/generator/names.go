package generator

// First names used when the drawn gender is male or female. Users with
// gender "other" get a name from gofakeit's mixed list.
var (
	maleNames = []string{
		"James", "John", "Robert", "Michael", "William", "David", "Richard",
		"Joseph", "Thomas", "Charles", "Daniel", "Matthew", "Anthony", "Mark",
		"Steven", "Andrew", "Joshua", "Kevin", "Brian", "George", "Edward",
		"Ryan", "Jacob", "Nicholas", "Eric", "Jonathan", "Samuel", "Benjamin",
		"Lucas", "Oliver", "Noah", "Ethan", "Leo", "Mateo", "Hugo", "Omar",
		"Ivan", "Kenji", "Rahul", "Diego",
	}

	femaleNames = []string{
		"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara",
		"Susan", "Jessica", "Sarah", "Karen", "Lisa", "Nancy", "Sandra",
		"Ashley", "Emily", "Michelle", "Amanda", "Melissa", "Stephanie",
		"Rebecca", "Laura", "Hannah", "Olivia", "Emma", "Sophia", "Ava",
		"Isabella", "Mia", "Chloe", "Grace", "Lucia", "Amara", "Yuki",
		"Priya", "Fatima", "Elena", "Ingrid", "Aisha", "Camila", "Zoe",
	}
)
