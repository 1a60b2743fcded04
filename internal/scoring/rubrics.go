package scoring

import "github.com/whyumesh/FMV/internal/matching"

// Criteria returns the nine scoring criteria in Score 1..9 order. The answer
// strings must match the survey's selection texts byte for byte; they are
// lookup keys, not prose, so typos present in the survey tool stay as they
// are.
func Criteria() []Criterion {
	return []Criterion{
		{
			Name:   "years_experience",
			Column: matching.ColYears,
			Rubric: map[string]int{
				"1-2 years of experience":  0,
				"3-7 years of experience":  2,
				"8-14 years of experience": 4,
				"15+ years of experience":  6,
			},
		},
		{
			Name:   "clinical_experience",
			Column: matching.ColClinical,
			Rubric: map[string]int{
				"Minimal patient interactions and predominantly administrative/academic work":                                                 0,
				"Less than half the time spent with patients in clinical setting and higher focus on academic/administrative work":            2,
				"Equal amount of time spent with patients in clinical setting and equal amount of time spent in academic/administrative work": 4,
				"Significant time spent with patients in clinical setting and minimal time spent in academic/administrative work":             6,
			},
		},
		{
			Name:   "leadership",
			Column: matching.ColLeadership,
			Rubric: map[string]int{
				"Not applicable, as not a part of any society or leadership roles in hospital": 0,
				"1-2 years in a leadership position(s) eg. HOD of a particular speciality in Hospital or other Patient Care Setting and/or serving as a President, Vice president, Secretary,Treasurer, Board member in a Professional or Scientific Society.": 2,
				"3-7 years in a leadership position(s) eg HOD of a particular speciality in Hospital or other Patient Care Setting and/or serving as a national/regional leader in a Professional or Scientific Society.":                                       4,
				"8 or more years in a leadership position(s) eg HOD for a specialty in Hospital or other Patient Care Setting and/or serving as an international leader in a Professional or Scientific Society.":                                              6,
			},
		},
		{
			Name:   "geographical_reach",
			Column: matching.ColGeographic,
			Rubric: map[string]int{
				"Local Influence":            0,
				"National Influence":         2,
				"Multi-Country Influence":    4,
				"Global/Worldwide Influence": 6,
			},
		},
		{
			Name:   "academic_position",
			Column: matching.ColAcademic,
			Rubric: map[string]int{
				"None or N/A": 0,
				"Professor (including Associate / Assistant Professor)": 2,
				"Professor or Adjunct/Additional/Emeritus Professor":    4,
				"Department Chair/ HOD (or similar position)":           6,
			},
		},
		{
			Name:   "additional_education",
			Column: matching.ColAdditionalEducation,
			Rubric: map[string]int{
				"None or N/A": 0,
				"1 Additional degree, fellowship, or advanced training certification.":          2,
				"2 Additional degrees, fellowship, or advanced training certification.":         4,
				"3 or More Additional degrees, fellowship, or advanced training certification.": 6,
			},
		},
		{
			Name:   "research_experience",
			Column: matching.ColResearch,
			Rubric: map[string]int{
				"None or N/A": 0,
				"Participation as an Investigator or Sub-Investigator in 1 to 4 clinical trials or research studies.": 2,
				"Participation as an Investigator or Sub-Investigator in 5 to 9 clinical trials or research studies.": 4,
				"Participation as an Investigator of Sub-Investigator in 10 or more clinical trials or research studies or Principal Investigator for two or more clinical trials or research studies or serving as the Principal Investigator for a clinical trial or research study that led to important medical innovations or significant medical technology breakthroughs.": 6,
			},
		},
		{
			Name:   "publication_experience",
			Column: matching.ColPublication,
			Rubric: map[string]int{
				"None or N/A": 0,
				"Co-authorship or participation as contributing author on 1 to 4 publications.":                                                    2,
				"First authorship (if known) on 1 to 5 publications and/or co-authorship or participation as contributing author on 6 to 10 publications":  4,
				"First authorship (if known) on 6 or more publications and/or co-authorship or participation as contributing author on 11 or more publications": 6,
			},
		},
		{
			Name:   "speaking_experience",
			Column: matching.ColSpeaking,
			Rubric: map[string]int{
				"Local speaking engagements and the scientific work done for the specialty is near to the practice location": 0,
				"Most of the speaking engagements are directed nationally for the conferences, symposia or national webinars in the designated specialty and the scientific work done is not restricted for the local audience": 2,
				"The speaking experiences are not restricted nationally but to a group of specified countries and the scientific work is directed to the same group of countries":                                               4,
				"The speaking engagements and the scinetific work carried out is across the globe":                                                                                                                             6,
			},
		},
	}
}
