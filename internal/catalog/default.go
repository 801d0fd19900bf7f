package catalog

// Default builds the built-in role catalog. Each call returns a new catalog.
func Default() *Catalog {
	return MustNew(
		RoleProfile{Name: "Data Analyst", RequiredSkills: []string{"python", "sql", "excel", "power bi", "statistics", "tableau"}},
		RoleProfile{Name: "Web Developer", RequiredSkills: []string{"html", "css", "javascript", "react", "node", "bootstrap"}},
		RoleProfile{Name: "Java Developer", RequiredSkills: []string{"java", "spring", "hibernate", "jdbc", "oop", "mysql"}},
		RoleProfile{Name: "Python Developer", RequiredSkills: []string{"python", "django", "flask", "pandas", "numpy"}},
		RoleProfile{Name: "Software Engineer", RequiredSkills: []string{"data structures", "algorithms", "oop", "git", "problem solving"}},
		RoleProfile{Name: "HR Manager", RequiredSkills: []string{"recruitment", "communication", "interviewing", "payroll", "hr policies"}},
		RoleProfile{Name: "Marketing Executive", RequiredSkills: []string{"seo", "digital marketing", "social media", "branding", "sales"}},
		RoleProfile{Name: "Graphic Designer", RequiredSkills: []string{"photoshop", "illustrator", "figma", "creativity", "canva"}},
	)
}
